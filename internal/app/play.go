package app

import (
	"context"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/ranking"
	"eduquiz-service/internal/session"
	"eduquiz-service/internal/store"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// SessionRepository abstracts where live sessions are kept (in-memory, Redis, etc).
// It holds at most one session per user.
type SessionRepository interface {
	Swap(userID string, s *session.Session) *session.Session
	Get(userID string) (*session.Session, bool)
	Delete(userID string, s *session.Session)
}

// PlayService runs quiz attempts and records their results.
type PlayService struct {
	store    *store.Store
	sessions SessionRepository
	opts     []session.Option
	log      *logrus.Entry
}

// NewPlayService wires the service. Without options sessions count down on
// the wall clock.
func NewPlayService(st *store.Store, sessions SessionRepository, opts ...session.Option) *PlayService {
	if len(opts) == 0 {
		opts = []session.Option{session.WithCountdown(clock.RealClock{})}
	}
	return &PlayService{
		store:    st,
		sessions: sessions,
		opts:     opts,
		log:      logrus.WithField("component", "play"),
	}
}

// Outcome is what a student sees after the last question.
type Outcome struct {
	Result   domain.UserResult     `json:"result"`
	History  []domain.AnswerRecord `json:"history"`
	Percent  int                   `json:"percent"`
	Feedback ranking.Encouragement `json:"feedback"`
}

// Start begins a new attempt for user, replacing and closing any attempt in
// progress.
func (p *PlayService) Start(ctx context.Context, user domain.User, quizID string) (*session.Session, error) {
	data, err := p.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	quiz, ok := data.FindQuiz(quizID)
	if !ok {
		return nil, domain.ErrQuizNotFound
	}

	sess, err := session.New(quiz, data.QuestionsByQuiz(quizID), p.opts...)
	if err != nil {
		return nil, err
	}
	if prev := p.sessions.Swap(user.ID, sess); prev != nil {
		prev.Close()
	}
	p.log.WithFields(logrus.Fields{"user": user.Name, "quiz": quizID}).Info("quiz started")
	return sess, nil
}

// Answer submits an answer to the question on screen.
func (p *PlayService) Answer(_ context.Context, userID string, answer domain.Answer) (domain.AnswerRecord, error) {
	sess, err := p.session(userID)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	return sess.Submit(answer)
}

// Continue moves to the next question once the current one is revealed.
func (p *PlayService) Continue(_ context.Context, userID string) (session.View, error) {
	sess, err := p.session(userID)
	if err != nil {
		return session.View{}, err
	}
	if err := sess.Continue(); err != nil {
		return session.View{}, err
	}
	return sess.Current(), nil
}

// Current returns the screen of the user's attempt.
func (p *PlayService) Current(_ context.Context, userID string) (session.View, error) {
	sess, err := p.session(userID)
	if err != nil {
		return session.View{}, err
	}
	return sess.Current(), nil
}

// Subscribe returns a channel that receives the session's events.
// The caller must invoke the returned cancel function to avoid leaks.
func (p *PlayService) Subscribe(_ context.Context, userID string) (<-chan session.Event, func(), error) {
	sess, err := p.session(userID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := sess.Subscribe()
	return ch, cancel, nil
}

// Abandon drops the user's attempt without recording a result.
func (p *PlayService) Abandon(ctx context.Context, userID string) {
	if sess, ok := p.sessions.Get(userID); ok {
		p.Release(ctx, userID, sess)
	}
}

// Release closes sess and forgets it if it is still the user's attempt. A
// newer attempt started in the meantime is left alone.
func (p *PlayService) Release(_ context.Context, userID string, sess *session.Session) {
	p.sessions.Delete(userID, sess)
	sess.Close()
}

// Finish finalizes the user's complete attempt, stores its result and drops
// the session.
func (p *PlayService) Finish(ctx context.Context, user domain.User) (Outcome, error) {
	sess, err := p.session(user.ID)
	if err != nil {
		return Outcome{}, err
	}
	return p.FinishAttempt(ctx, user, sess)
}

// FinishAttempt is Finish for a specific session.
func (p *PlayService) FinishAttempt(ctx context.Context, user domain.User, sess *session.Session) (Outcome, error) {
	result, history, err := sess.Finalize(user.Name)
	if err != nil {
		return Outcome{}, err
	}

	stored, err := p.store.AddResult(ctx, result)
	if err != nil {
		return Outcome{}, err
	}
	p.sessions.Delete(user.ID, sess)
	sess.Close()

	percent := ranking.Percentage(stored)
	p.log.WithFields(logrus.Fields{
		"user":  stored.UserName,
		"quiz":  stored.QuizID,
		"score": stored.Score,
		"total": stored.TotalQuestions,
	}).Info("quiz finished")
	return Outcome{
		Result:   stored,
		History:  history,
		Percent:  percent,
		Feedback: ranking.Feedback(percent),
	}, nil
}

func (p *PlayService) session(userID string) (*session.Session, error) {
	sess, ok := p.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}
