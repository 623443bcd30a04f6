package session

import "eduquiz-service/internal/domain"

// EventType names a session state change.
type EventType string

const (
	EventPresented EventType = "presented"
	EventTick      EventType = "tick"
	EventRevealed  EventType = "revealed"
	EventComplete  EventType = "complete"
	EventClosed    EventType = "closed"
)

// Event is pushed to subscribers on every state change.
type Event struct {
	Type   EventType            `json:"type"`
	View   View                 `json:"view"`
	Record *domain.AnswerRecord `json:"record,omitempty"`
}

// View is a read-only snapshot of the question on screen. Correctness and
// the expected answer are only filled once the question is revealed.
type View struct {
	QuizID        string              `json:"quizId"`
	QuizTitle     string              `json:"quizTitle"`
	Index         int                 `json:"index"`
	Total         int                 `json:"total"`
	Phase         Phase               `json:"phase"`
	QuestionID    string              `json:"questionId"`
	Type          domain.QuestionType `json:"type"`
	Text          string              `json:"text"`
	Options       []string            `json:"options,omitempty"`
	TimeLimit     int                 `json:"timeLimit"`
	TimeLeft      int                 `json:"timeLeft"`
	Score         int                 `json:"score"`
	Streak        int                 `json:"streak"`
	Correct       *bool               `json:"correct,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
	CorrectAnswer string              `json:"correctAnswer,omitempty"`
}

func eventForPhase(p Phase) EventType {
	switch p {
	case PhaseRevealed:
		return EventRevealed
	case PhaseComplete:
		return EventComplete
	}
	return EventPresented
}
