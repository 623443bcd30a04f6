package ranking

import (
	"math"
	"strings"

	"eduquiz-service/internal/domain"
)

// NoPopularQuiz is reported when no quiz has been attempted.
const NoPopularQuiz = "none"

// Stats summarises the aggregate for the admin dashboard.
type Stats struct {
	TotalUsers    int    `json:"totalUsers"`
	TotalResults  int    `json:"totalResults"`
	AverageScore  int    `json:"averageScore"`
	PopularQuizID string `json:"popularQuizId,omitempty"`
	PopularQuiz   string `json:"popularQuiz"`
}

// Dashboard computes the admin dashboard statistics.
func Dashboard(data domain.AppData) Stats {
	stats := Stats{
		TotalResults: len(data.Results),
		AverageScore: averagePercent(data.Results),
		PopularQuiz:  NoPopularQuiz,
	}
	for _, u := range data.Users {
		if u.Role == domain.RoleUser {
			stats.TotalUsers++
		}
	}

	if id, ok := mostAttempted(data.Results); ok {
		stats.PopularQuizID = id
		if quiz, found := data.FindQuiz(id); found {
			stats.PopularQuiz = quiz.Title
		}
	}
	return stats
}

// mostAttempted counts results per quiz in encounter order and returns the
// quiz with the highest count; the first one seen wins ties.
func mostAttempted(results []domain.UserResult) (string, bool) {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range results {
		if _, ok := counts[r.QuizID]; !ok {
			order = append(order, r.QuizID)
		}
		counts[r.QuizID]++
	}

	best, bestCount := "", 0
	for _, id := range order {
		if counts[id] > bestCount {
			best, bestCount = id, counts[id]
		}
	}
	return best, bestCount > 0
}

// UserStats is the personal summary shown on a student's home screen.
type UserStats struct {
	TotalQuizzes int `json:"totalQuizzes"`
	AverageScore int `json:"averageScore"`
}

// ForUser summarises the results recorded under name, ignoring case.
func ForUser(results []domain.UserResult, name string) UserStats {
	mine := make([]domain.UserResult, 0)
	for _, r := range results {
		if strings.EqualFold(r.UserName, name) {
			mine = append(mine, r)
		}
	}
	return UserStats{TotalQuizzes: len(mine), AverageScore: averagePercent(mine)}
}

// UserAverage is one row of the per-user averages table.
type UserAverage struct {
	UserName     string `json:"userName"`
	Attempts     int    `json:"attempts"`
	AverageScore int    `json:"averageScore"`
}

// UserAverages groups results by user name in first-encountered order.
func UserAverages(results []domain.UserResult) []UserAverage {
	index := make(map[string]int)
	groups := make([][]domain.UserResult, 0)
	names := make([]string, 0)
	for _, r := range results {
		key := strings.ToLower(r.UserName)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
			names = append(names, r.UserName)
		}
		groups[i] = append(groups[i], r)
	}

	out := make([]UserAverage, len(groups))
	for i, g := range groups {
		out[i] = UserAverage{UserName: names[i], Attempts: len(g), AverageScore: averagePercent(g)}
	}
	return out
}

// Percentage is the rounded score percentage of one result.
func Percentage(r domain.UserResult) int {
	if r.TotalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(r.Score) / float64(r.TotalQuestions) * 100))
}

// averagePercent is round(mean(score/total) * 100), or 0 for no results.
func averagePercent(results []domain.UserResult) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		if r.TotalQuestions > 0 {
			sum += float64(r.Score) / float64(r.TotalQuestions)
		}
	}
	return int(math.Round(sum / float64(len(results)) * 100))
}

// Encouragement is the headline shown with a finished quiz.
type Encouragement struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Feedback picks the encouragement for a score percentage.
func Feedback(percent int) Encouragement {
	switch {
	case percent >= 100:
		return Encouragement{Title: "Perfect!", Message: "You have fully mastered this theme."}
	case percent >= 80:
		return Encouragement{Title: "Amazing!", Message: "A fantastic result, almost there."}
	case percent >= 50:
		return Encouragement{Title: "Well done!", Message: "You have a solid base, keep practicing."}
	}
	return Encouragement{Title: "Keep going!", Message: "Every mistake is a chance to learn. Try again."}
}
