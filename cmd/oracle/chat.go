package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"oracle/internal/logger"
	"oracle/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	var logFile string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive question answering in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			// the terminal belongs to the UI, so logs go to a file or nowhere
			a.log = zerolog.Nop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				a.log = logger.New(logger.Config{Level: a.cfg.Log.Level, Output: f})
			}

			ans, err := a.answerer(cmd.Context())
			if err != nil {
				return err
			}
			subtitle := fmt.Sprintf("collection %q, top %d fragments", a.cfg.VectorStore.Collection, a.cfg.Retrieval.K)
			_, err = tea.NewProgram(tui.New(ans, subtitle, timeout), tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Time limit for each question")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the UI runs")
	return cmd
}
