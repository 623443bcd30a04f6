package domain

import (
	"strings"
	"time"
)

// QuestionType selects the evaluation rule applied to a question.
type QuestionType string

const (
	QuestionMultiple    QuestionType = "multiple"
	QuestionBoolean     QuestionType = "boolean"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionOrdering    QuestionType = "ordering"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultiple, QuestionBoolean, QuestionShortAnswer, QuestionOrdering:
		return true
	}
	return false
}

// Role distinguishes administrators from students.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Theme is a top-level category grouping quizzes.
type Theme struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// Quiz belongs to one theme by reference.
type Quiz struct {
	ID          string `json:"id" yaml:"id"`
	ThemeID     string `json:"themeId" yaml:"themeId"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Question belongs to one quiz by reference. Only the fields relevant to Type
// are consulted when an answer is evaluated.
type Question struct {
	ID                 string       `json:"id" yaml:"id"`
	QuizID             string       `json:"quizId" yaml:"quizId"`
	Type               QuestionType `json:"type" yaml:"type"`
	Text               string       `json:"text" yaml:"text"`
	Options            []string     `json:"options" yaml:"options"`
	CorrectAnswerIndex int          `json:"correctAnswerIndex,omitempty" yaml:"correctAnswerIndex,omitempty"`
	CorrectAnswerText  string       `json:"correctAnswerText,omitempty" yaml:"correctAnswerText,omitempty"`
	Explanation        string       `json:"explanation" yaml:"explanation"`
	TimeLimit          int          `json:"timeLimit" yaml:"timeLimit"` // seconds
}

// User is either the admin or a student. Students have no password.
type User struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Role     Role   `json:"role" yaml:"role"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserResult is the immutable outcome of one completed quiz attempt.
type UserResult struct {
	ID                  string    `json:"id" yaml:"id"`
	UserName            string    `json:"userName" yaml:"userName"`
	QuizID              string    `json:"quizId" yaml:"quizId"`
	ThemeID             string    `json:"themeId" yaml:"themeId"`
	Score               int       `json:"score" yaml:"score"`
	TotalQuestions      int       `json:"totalQuestions" yaml:"totalQuestions"`
	TimeSpent           int       `json:"timeSpent" yaml:"timeSpent"`
	AverageResponseTime float64   `json:"averageResponseTime" yaml:"averageResponseTime"`
	Date                time.Time `json:"date" yaml:"date"`
}

// AppData is the aggregate root persisted as a single blob.
type AppData struct {
	Themes    []Theme      `json:"themes" yaml:"themes"`
	Quizzes   []Quiz       `json:"quizzes" yaml:"quizzes"`
	Questions []Question   `json:"questions" yaml:"questions"`
	Results   []UserResult `json:"results" yaml:"results"`
	Users     []User       `json:"users" yaml:"users"`
}

// Clone returns a deep copy so callers can derive a new aggregate without
// touching slices shared with other readers.
func (d AppData) Clone() AppData {
	out := AppData{
		Themes:    append([]Theme{}, d.Themes...),
		Quizzes:   append([]Quiz{}, d.Quizzes...),
		Questions: make([]Question, len(d.Questions)),
		Results:   append([]UserResult{}, d.Results...),
		Users:     append([]User{}, d.Users...),
	}
	for i, q := range d.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

func (d AppData) FindTheme(id string) (Theme, bool) {
	for _, t := range d.Themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

func (d AppData) FindQuiz(id string) (Quiz, bool) {
	for _, q := range d.Quizzes {
		if q.ID == id {
			return q, true
		}
	}
	return Quiz{}, false
}

func (d AppData) FindUser(id string) (User, bool) {
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// FindStudent matches a student by display name, ignoring case.
func (d AppData) FindStudent(name string) (User, bool) {
	for _, u := range d.Users {
		if u.Role == RoleUser && strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return User{}, false
}

// QuizzesByTheme returns the quizzes referencing themeID in stored order.
func (d AppData) QuizzesByTheme(themeID string) []Quiz {
	out := make([]Quiz, 0)
	for _, q := range d.Quizzes {
		if q.ThemeID == themeID {
			out = append(out, q)
		}
	}
	return out
}

// QuestionsByQuiz returns the questions of a quiz in stored order.
func (d AppData) QuestionsByQuiz(quizID string) []Question {
	out := make([]Question, 0)
	for _, q := range d.Questions {
		if q.QuizID == quizID {
			q.Options = append([]string(nil), q.Options...)
			out = append(out, q)
		}
	}
	return out
}

// Answer is a submitted value. Exactly one of Option, Text or Order is
// meaningful depending on the question type; Skipped marks the timeout
// sentinel.
type Answer struct {
	Option  int      `json:"option"`
	Text    string   `json:"text,omitempty"`
	Order   []string `json:"order,omitempty"`
	Skipped bool     `json:"skipped,omitempty"`
}

// NoOption is the option index carried by answers that did not pick one.
const NoOption = -1

func OptionAnswer(index int) Answer {
	return Answer{Option: index}
}

func TextAnswer(text string) Answer {
	return Answer{Option: NoOption, Text: text}
}

func OrderAnswer(items []string) Answer {
	return Answer{Option: NoOption, Order: append([]string(nil), items...)}
}

// NoAnswer is submitted automatically when a question times out.
func NoAnswer() Answer {
	return Answer{Option: NoOption, Skipped: true}
}

// AnswerRecord is one entry of a session's answer history.
type AnswerRecord struct {
	Question  Question `json:"question"`
	Answer    Answer   `json:"answer"`
	Correct   bool     `json:"correct"`
	TimedOut  bool     `json:"timedOut"`
	TimeTaken int      `json:"timeTaken"`
}

// EntityKind names a deletable collection of the aggregate.
type EntityKind string

const (
	KindTheme    EntityKind = "theme"
	KindQuiz     EntityKind = "quiz"
	KindQuestion EntityKind = "question"
	KindUser     EntityKind = "user"
)

// ParseEntityKind accepts singular or plural names.
func ParseEntityKind(raw string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "theme", "themes":
		return KindTheme, nil
	case "quiz", "quizzes":
		return KindQuiz, nil
	case "question", "questions":
		return KindQuestion, nil
	case "user", "users":
		return KindUser, nil
	}
	return "", ErrUnknownKind
}
