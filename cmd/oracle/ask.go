package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type askResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Refused bool     `json:"refused"`
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the ingested documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ans, err := a.answerer(cmd.Context())
			if err != nil {
				return err
			}
			res, err := ans.Answer(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(askResult{Answer: res.Text, Sources: res.Sources, Refused: res.Refused})
			}
			fmt.Fprintln(out, res.Text)
			if len(res.Sources) > 0 {
				fmt.Fprintf(out, "\nSources: %s\n", strings.Join(res.Sources, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the answer as JSON")
	return cmd
}
