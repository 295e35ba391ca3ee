package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Answer questions strictly from a fixed set of documents",
		Long: `oracle ingests a set of documents into a vector index and answers
questions using only what those documents say. When the documents do not
contain the answer it replies with a fixed refusal message.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (defaults to ./config.yaml or ~/.config/oracle/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human readable log output")

	cmd.AddCommand(newIngestCmd(opts), newAskCmd(opts), newChatCmd(opts))
	return cmd
}
