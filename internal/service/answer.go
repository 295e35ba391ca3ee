package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"oracle/internal/domain"
)

// Answerer answers questions from retrieved context only.
type Answerer struct {
	retriever *Retriever
	model     domain.LanguageModel
	refusal   string
	log       zerolog.Logger
}

func NewAnswerer(retriever *Retriever, model domain.LanguageModel, refusal string, log zerolog.Logger) *Answerer {
	if refusal == "" {
		refusal = DefaultRefusal
	}
	return &Answerer{retriever: retriever, model: model, refusal: refusal, log: log}
}

// Refusal is the exact text returned when the documents do not hold an answer.
func (a *Answerer) Refusal() string { return a.refusal }

// Answer retrieves context for question and asks the model to answer from it.
// A refusal is a successful answer with Refused set. Any failure is reported
// as a *domain.GenerationError whose message hides the cause.
func (a *Answerer) Answer(ctx context.Context, question string) (domain.Answer, error) {
	fragments, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, a.fail(question, err)
	}
	sources := Sources(fragments)
	if len(fragments) == 0 {
		a.log.Debug().Str("question", question).Msg("no context retrieved, refusing")
		return domain.Answer{Text: a.refusal, Sources: sources, Refused: true}, nil
	}

	prompt := BuildPrompt(a.refusal, BuildContext(fragments), question)
	text, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return domain.Answer{}, a.fail(question, err)
	}
	refused := strings.TrimSpace(text) == a.refusal
	if refused {
		text = a.refusal
	}
	a.log.Debug().
		Str("question", question).
		Int("fragments", len(fragments)).
		Strs("sources", sources).
		Bool("refused", refused).
		Msg("question answered")
	return domain.Answer{Text: text, Sources: sources, Refused: refused}, nil
}

func (a *Answerer) fail(question string, err error) error {
	a.log.Error().Err(err).Str("question", question).Msg("answer failed")
	return &domain.GenerationError{Err: err}
}
