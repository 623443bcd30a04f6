// Package ranking builds leaderboards and dashboard statistics from recorded
// quiz results.
package ranking

import (
	"sort"

	"eduquiz-service/internal/domain"
)

// ScopeKind is the filter dimension applied before sorting.
type ScopeKind string

const (
	ScopeGlobal ScopeKind = "global"
	ScopeTheme  ScopeKind = "theme"
	ScopeQuiz   ScopeKind = "quiz"
)

// Scope selects which results take part in a leaderboard.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func Global() Scope {
	return Scope{Kind: ScopeGlobal}
}

func ByTheme(themeID string) Scope {
	return Scope{Kind: ScopeTheme, ID: themeID}
}

func ByQuiz(quizID string) Scope {
	return Scope{Kind: ScopeQuiz, ID: quizID}
}

// ParseScope builds a scope from its wire form. An unknown kind is an error.
func ParseScope(kind, id string) (Scope, error) {
	switch ScopeKind(kind) {
	case "", ScopeGlobal:
		return Global(), nil
	case ScopeTheme:
		return ByTheme(id), nil
	case ScopeQuiz:
		return ByQuiz(id), nil
	}
	return Scope{}, domain.Invalid("unknown ranking scope %q", kind)
}

// matches reports whether r belongs to the scope. A theme or quiz scope
// without an id has nothing selected yet and keeps every result.
func (s Scope) matches(r domain.UserResult) bool {
	switch s.Kind {
	case ScopeTheme:
		return s.ID == "" || r.ThemeID == s.ID
	case ScopeQuiz:
		return s.ID == "" || r.QuizID == s.ID
	}
	return true
}

// Rank filters results by scope and orders them best first: higher
// percentage, then lower average response time. Equal entries keep their
// input order. The input slice is not modified.
func Rank(results []domain.UserResult, scope Scope) []domain.UserResult {
	out := make([]domain.UserResult, 0, len(results))
	for _, r := range results {
		if scope.matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := comparePercentage(out[i], out[j]); c != 0 {
			return c > 0
		}
		return out[i].AverageResponseTime < out[j].AverageResponseTime
	})
	return out
}

// Standing is a ranked result with its 1-based position.
type Standing struct {
	Position int               `json:"position"`
	Medal    string            `json:"medal,omitempty"`
	Percent  int               `json:"percent"`
	Result   domain.UserResult `json:"result"`
}

var medals = []string{"gold", "silver", "bronze"}

// Positions numbers an already ranked slice.
func Positions(ranked []domain.UserResult) []Standing {
	out := make([]Standing, len(ranked))
	for i, r := range ranked {
		out[i] = Standing{Position: i + 1, Percent: Percentage(r), Result: r}
		if i < len(medals) {
			out[i].Medal = medals[i]
		}
	}
	return out
}

// comparePercentage compares a.Score/a.Total with b.Score/b.Total exactly.
// Results with no questions count as 0%.
func comparePercentage(a, b domain.UserResult) int {
	an, ad := fraction(a)
	bn, bd := fraction(b)
	left, right := an*bd, bn*ad
	switch {
	case left > right:
		return 1
	case left < right:
		return -1
	}
	return 0
}

func fraction(r domain.UserResult) (int, int) {
	if r.TotalQuestions <= 0 {
		return 0, 1
	}
	return r.Score, r.TotalQuestions
}
