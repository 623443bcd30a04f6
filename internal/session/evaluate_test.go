package session

import (
	"math/rand"
	"testing"

	"eduquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	multiple := domain.Question{Type: domain.QuestionMultiple, Options: []string{"a", "b", "c"}, CorrectAnswerIndex: 2}
	boolean := domain.Question{Type: domain.QuestionBoolean, Options: []string{"True", "False"}, CorrectAnswerIndex: 0}
	short := domain.Question{Type: domain.QuestionShortAnswer, CorrectAnswerText: "Brasil"}
	ordering := domain.Question{Type: domain.QuestionOrdering, Options: []string{"one", "two", "three"}}

	tests := []struct {
		name     string
		question domain.Question
		answer   domain.Answer
		want     bool
	}{
		{name: "multiple correct index", question: multiple, answer: domain.OptionAnswer(2), want: true},
		{name: "multiple wrong index", question: multiple, answer: domain.OptionAnswer(1), want: false},
		{name: "multiple out of range", question: multiple, answer: domain.OptionAnswer(9), want: false},
		{name: "multiple skipped", question: multiple, answer: domain.NoAnswer(), want: false},
		{name: "boolean true", question: boolean, answer: domain.OptionAnswer(0), want: true},
		{name: "boolean false", question: boolean, answer: domain.OptionAnswer(1), want: false},
		{name: "boolean unanswered sentinel", question: boolean, answer: domain.TextAnswer("True"), want: false},
		{name: "short exact", question: short, answer: domain.TextAnswer("Brasil"), want: true},
		{name: "short padded lowercase", question: short, answer: domain.TextAnswer(" brasil "), want: true},
		{name: "short uppercase", question: short, answer: domain.TextAnswer("BRASIL"), want: true},
		{name: "short different word", question: short, answer: domain.TextAnswer("Brazil"), want: false},
		{name: "short blank", question: short, answer: domain.TextAnswer("   "), want: false},
		{name: "short skipped", question: short, answer: domain.NoAnswer(), want: false},
		{name: "ordering canonical", question: ordering, answer: domain.OrderAnswer([]string{"one", "two", "three"}), want: true},
		{name: "ordering one swap", question: ordering, answer: domain.OrderAnswer([]string{"one", "three", "two"}), want: false},
		{name: "ordering reversed", question: ordering, answer: domain.OrderAnswer([]string{"three", "two", "one"}), want: false},
		{name: "ordering missing item", question: ordering, answer: domain.OrderAnswer([]string{"one", "two"}), want: false},
		{name: "ordering case differs", question: ordering, answer: domain.OrderAnswer([]string{"One", "two", "three"}), want: false},
		{name: "unknown type", question: domain.Question{Type: "essay"}, answer: domain.TextAnswer("x"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.question, tt.answer))
		})
	}
}

func TestShufflePreservesItems(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}
	rnd := rand.New(rand.NewSource(1))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		out := Shuffle(items, rnd)
		assert.ElementsMatch(t, items, out)
		seen[joined(out)] = true
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, items, "input must not be modified")
	assert.Greater(t, len(seen), 1)
}

func TestPresentOptionsPerType(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	assert.Nil(t, presentOptions(domain.Question{Type: domain.QuestionShortAnswer, Options: []string{"ignored"}}, rnd))
	assert.Equal(t, []string{"x", "y"}, presentOptions(domain.Question{Type: domain.QuestionMultiple, Options: []string{"x", "y"}}, rnd))
}

func TestCorrectAnswer(t *testing.T) {
	assert.Equal(t, "c", CorrectAnswer(domain.Question{Type: domain.QuestionMultiple, Options: []string{"a", "b", "c"}, CorrectAnswerIndex: 2}))
	assert.Equal(t, "", CorrectAnswer(domain.Question{Type: domain.QuestionMultiple, Options: []string{"a"}, CorrectAnswerIndex: 4}))
	assert.Equal(t, "Paris", CorrectAnswer(domain.Question{Type: domain.QuestionShortAnswer, CorrectAnswerText: "Paris"}))
}

func joined(items []string) string {
	out := ""
	for _, it := range items {
		out += it + ","
	}
	return out
}
