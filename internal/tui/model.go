package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"oracle/internal/domain"
)

// AnswerPort is the TUI-facing subset of the answering service.
type AnswerPort interface {
	Answer(ctx context.Context, question string) (domain.Answer, error)
}

type exchange struct {
	question string
	answer   domain.Answer
	err      error
}

// answerMsg carries the outcome of an asynchronous question.
type answerMsg exchange

// Model is the Bubble Tea model for the chat session.
type Model struct {
	service  AnswerPort
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	history  []exchange
	subtitle string
	status   string
	cursor   int
	pending  bool
	ready    bool
}

// New creates a new TUI model instance. Each question gets its own timeout.
func New(service AnswerPort, subtitle string, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return Model{
		service:  service,
		timeout:  timeout,
		input:    ti,
		viewport: vp,
		subtitle: subtitle,
		status:   "Ready. Up/Down browse earlier answers, Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and question boxes
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, subtitle, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-ah)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case answerMsg:
		m.pending = false
		m.history = append(m.history, exchange(msg))
		m.cursor = len(m.history) - 1
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case msg.answer.Refused:
			m.status = "Not found in the documents."
		default:
			m.status = fmt.Sprintf("Answered from %d source(s).", len(msg.answer.Sources))
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending {
				return m, nil
			}
			m.pending = true
			m.status = fmt.Sprintf("Thinking about %q...", q)
			m.input.SetValue("")
			return m, m.ask(q)
		case "down":
			if len(m.history) > 0 {
				m.cursor = (m.cursor + 1) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.history) > 0 {
				m.cursor = (m.cursor - 1 + len(m.history)) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	service, timeout := m.service, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ans, err := service.Answer(ctx, question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

// View renders the TUI layout and current exchange.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Oracle")
	subtitle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.subtitle)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + subtitle + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	e := m.history[m.cursor]
	title := fmt.Sprintf("Question %d/%d", m.cursor+1, len(m.history))
	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString(questionStyle.Render(e.question) + "\n\n")
	if e.err != nil {
		b.WriteString(errorStyle.Render(e.err.Error()))
		return b.String()
	}
	if e.answer.Refused {
		b.WriteString(refusalStyle.Render(e.answer.Text))
	} else {
		b.WriteString(e.answer.Text)
	}
	if len(e.answer.Sources) > 0 {
		b.WriteString("\n\n" + sourceStyle.Render("Sources: "+strings.Join(e.answer.Sources, ", ")))
	}
	return b.String()
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	refusalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
