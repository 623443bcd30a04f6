package session

import (
	"math/rand"
	"strings"

	"eduquiz-service/internal/domain"
)

// Evaluate applies the rule for the question's type to a submitted answer.
// Skipped answers are always incorrect.
func Evaluate(q domain.Question, a domain.Answer) bool {
	if a.Skipped {
		return false
	}
	switch q.Type {
	case domain.QuestionMultiple, domain.QuestionBoolean:
		return a.Option >= 0 && a.Option == q.CorrectAnswerIndex
	case domain.QuestionShortAnswer:
		got := strings.TrimSpace(a.Text)
		if got == "" {
			return false
		}
		return strings.EqualFold(got, strings.TrimSpace(q.CorrectAnswerText))
	case domain.QuestionOrdering:
		return sameSequence(a.Order, q.Options)
	}
	return false
}

// CorrectAnswer renders the expected answer of q for display.
func CorrectAnswer(q domain.Question) string {
	switch q.Type {
	case domain.QuestionMultiple, domain.QuestionBoolean:
		if q.CorrectAnswerIndex >= 0 && q.CorrectAnswerIndex < len(q.Options) {
			return q.Options[q.CorrectAnswerIndex]
		}
	case domain.QuestionShortAnswer:
		return q.CorrectAnswerText
	case domain.QuestionOrdering:
		return strings.Join(q.Options, " > ")
	}
	return ""
}

// Shuffle returns a uniformly permuted copy of items.
func Shuffle(items []string, rnd *rand.Rand) []string {
	out := append([]string(nil), items...)
	rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// presentOptions is the option list shown to the student. Ordering questions
// are shown shuffled; evaluation still compares against q.Options.
func presentOptions(q domain.Question, rnd *rand.Rand) []string {
	if q.Type == domain.QuestionOrdering {
		return Shuffle(q.Options, rnd)
	}
	if q.Type == domain.QuestionShortAnswer {
		return nil
	}
	return append([]string(nil), q.Options...)
}

func sameSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
