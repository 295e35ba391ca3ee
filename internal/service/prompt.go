package service

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"oracle/internal/domain"
)

const (
	// DefaultRefusal is returned verbatim when the documents do not hold the answer.
	DefaultRefusal = "I'm sorry, but that information is not in the provided documents."
	// ContextDelimiter separates fragments inside the context block.
	ContextDelimiter = "\n---\n"
)

const promptTemplate = `You are a CLOSED information retrieval system.
Your only source of truth is the CONTEXT given below.

CRITICAL RULES:
1. If the answer does NOT appear explicitly in the CONTEXT, reply exactly: "%s"
2. Do NOT use outside knowledge and do not mention anything that is not in the CONTEXT.
3. Do not make anything up.

CONTEXT:
%s

QUESTION: %s

ANSWER:`

// BuildContext joins fragment texts in rank order.
func BuildContext(fragments []domain.ScoredFragment) string {
	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Payload.Text
	}
	return strings.Join(texts, ContextDelimiter)
}

// BuildPrompt renders the closed-domain instruction around context and question.
func BuildPrompt(refusal, context, question string) string {
	return fmt.Sprintf(promptTemplate, refusal, context, strings.TrimSpace(question))
}

// Sources returns the distinct file names behind fragments, sorted.
func Sources(fragments []domain.ScoredFragment) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f.Payload.Source == "" {
			continue
		}
		out = append(out, filepath.Base(f.Payload.Source))
	}
	slices.Sort(out)
	return slices.Compact(out)
}
