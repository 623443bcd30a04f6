// Package session runs one timed attempt at a quiz: it presents questions in
// order, counts down each question's time limit, evaluates answers and
// produces the result record when the attempt is complete.
package session

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"eduquiz-service/internal/domain"
	"k8s.io/utils/clock"
)

// Phase is the state of the question currently on screen.
type Phase string

const (
	PhasePresenting Phase = "presenting"
	PhaseRevealed   Phase = "revealed"
	PhaseComplete   Phase = "complete"
)

// AnonymousName is recorded when a session is finalized without a user name.
const AnonymousName = "Anonymous"

// tickInterval is the countdown resolution; time limits are whole seconds.
const tickInterval = time.Second

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to measure answer times. Ticks are still
// driven manually through Tick.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithCountdown makes the session own a repeating one-second ticker on c that
// calls Tick while a question is presented.
func WithCountdown(c clock.WithTicker) Option {
	return func(s *Session) {
		s.clock = c
		s.ticker = c
	}
}

// WithRand sets the source used to shuffle ordering questions.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) {
		s.rnd = rnd
	}
}

// Session is one student's attempt at a quiz. It is safe for concurrent use;
// countdown ticks arrive on their own goroutine.
type Session struct {
	mu        sync.Mutex
	quiz      domain.Quiz
	questions []domain.Question
	clock     clock.PassiveClock
	ticker    clock.WithTicker
	rnd       *rand.Rand

	index      int
	phase      Phase
	presented  []string
	timeLeft   int
	startedAt  time.Time
	generation int
	timer      *countdown

	score   int
	streak  int
	history []domain.AnswerRecord

	finalized bool
	closed    bool

	subscribers map[chan Event]struct{}
}

// New starts a session on the first question. A quiz without questions is
// rejected with domain.ErrQuizEmpty.
func New(quiz domain.Quiz, questions []domain.Question, opts ...Option) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrQuizEmpty
	}
	s := &Session{
		quiz:        quiz,
		questions:   make([]domain.Question, len(questions)),
		clock:       clock.RealClock{},
		subscribers: make(map[chan Event]struct{}),
	}
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		s.questions[i] = q
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentLocked()
	return s, nil
}

// Quiz returns the quiz being played.
func (s *Session) Quiz() domain.Quiz {
	return s.quiz
}

// Current returns a snapshot of the question on screen.
func (s *Session) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Score returns the number of correct answers so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// Streak returns the count of consecutive correct answers.
func (s *Session) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streak
}

// History returns a copy of the answers recorded so far.
func (s *Session) History() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AnswerRecord(nil), s.history...)
}

// Submit answers the presented question. It is accepted once per question;
// later calls return domain.ErrQuestionLocked and change nothing.
func (s *Session) Submit(answer domain.Answer) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.AnswerRecord{}, domain.ErrSessionClosed
	}
	if s.phase != PhasePresenting {
		return domain.AnswerRecord{}, domain.ErrQuestionLocked
	}
	return s.revealLocked(answer, false), nil
}

// Tick advances the countdown by one second. When it reaches zero the
// question is answered with domain.NoAnswer. It reports whether the
// countdown is still running.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked()
}

// Continue moves past a revealed question to the next one, or completes the
// session after the last question.
func (s *Session) Continue() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.phase != PhaseRevealed {
		return domain.ErrNotRevealed
	}
	if s.index+1 < len(s.questions) {
		s.index++
		s.presentLocked()
		return nil
	}
	s.phase = PhaseComplete
	s.broadcastLocked(Event{Type: EventComplete, View: s.viewLocked()})
	return nil
}

// Finalize produces the result of a complete session together with its
// answer history. The result has no id or date; the store assigns them.
// It succeeds once: later calls return domain.ErrAlreadyFinalized.
func (s *Session) Finalize(userName string) (domain.UserResult, []domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return domain.UserResult{}, nil, domain.ErrAlreadyFinalized
	}
	if s.phase != PhaseComplete {
		return domain.UserResult{}, nil, domain.ErrSessionNotComplete
	}
	if userName == "" {
		userName = AnonymousName
	}

	timeSpent := 0
	for _, rec := range s.history {
		timeSpent += rec.TimeTaken
	}
	total := len(s.questions)
	s.finalized = true

	return domain.UserResult{
		UserName:            userName,
		QuizID:              s.quiz.ID,
		ThemeID:             s.quiz.ThemeID,
		Score:               s.score,
		TotalQuestions:      total,
		TimeSpent:           timeSpent,
		AverageResponseTime: AverageResponseTime(timeSpent, total),
	}, append([]domain.AnswerRecord(nil), s.history...), nil
}

// Close stops the countdown, sends a final closed event and releases
// subscribers. A closed session rejects further answers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.timer.stop()
	s.timer = nil
	s.broadcastLocked(Event{Type: EventClosed, View: s.viewLocked()})
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Subscribe returns a channel receiving session events, starting with a
// snapshot of the current question. The caller must invoke cancel.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- Event{Type: eventForPhase(s.phase), View: s.viewLocked()}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// AverageResponseTime is timeSpent/total rounded to two decimals, or 0 when
// total is 0.
func AverageResponseTime(timeSpent, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(timeSpent)/float64(total)*100) / 100
}

func (s *Session) presentLocked() {
	q := s.questions[s.index]
	s.phase = PhasePresenting
	s.timeLeft = timeLimit(q)
	s.startedAt = s.clock.Now()
	s.presented = presentOptions(q, s.rnd)
	s.generation++

	if s.ticker != nil {
		gen := s.generation
		s.timer = startCountdown(s.ticker, tickInterval, func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen != s.generation || s.closed {
				return false
			}
			return s.tickLocked()
		})
	}
	s.broadcastLocked(Event{Type: EventPresented, View: s.viewLocked()})
}

func (s *Session) tickLocked() bool {
	if s.closed || s.phase != PhasePresenting {
		return false
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		s.revealLocked(domain.NoAnswer(), true)
		return false
	}
	s.broadcastLocked(Event{Type: EventTick, View: s.viewLocked()})
	return true
}

func (s *Session) revealLocked(answer domain.Answer, timedOut bool) domain.AnswerRecord {
	s.timer.stop()
	s.timer = nil

	q := s.questions[s.index]
	limit := timeLimit(q)
	taken := limit
	if !timedOut {
		taken = int(math.Round(s.clock.Since(s.startedAt).Seconds()))
		if taken > limit {
			taken = limit
		}
		if taken < 0 {
			taken = 0
		}
	}

	correct := !timedOut && Evaluate(q, answer)
	if correct {
		s.score++
		s.streak++
	} else {
		s.streak = 0
	}

	rec := domain.AnswerRecord{
		Question:  q,
		Answer:    answer,
		Correct:   correct,
		TimedOut:  timedOut,
		TimeTaken: taken,
	}
	s.history = append(s.history, rec)
	s.phase = PhaseRevealed

	s.broadcastLocked(Event{Type: EventRevealed, View: s.viewLocked(), Record: &rec})
	return rec
}

func (s *Session) viewLocked() View {
	q := s.questions[s.index]
	v := View{
		QuizID:     s.quiz.ID,
		QuizTitle:  s.quiz.Title,
		Index:      s.index,
		Total:      len(s.questions),
		Phase:      s.phase,
		QuestionID: q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Options:    append([]string(nil), s.presented...),
		TimeLimit:  timeLimit(q),
		TimeLeft:   s.timeLeft,
		Score:      s.score,
		Streak:     s.streak,
	}
	if s.phase != PhasePresenting && len(s.history) > s.index {
		correct := s.history[s.index].Correct
		v.Correct = &correct
		v.Explanation = q.Explanation
		v.CorrectAnswer = CorrectAnswer(q)
	}
	return v
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest pending event so slow readers see the latest state.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// DefaultTimeLimit applies to questions stored without a positive limit.
const DefaultTimeLimit = 20

func timeLimit(q domain.Question) int {
	if q.TimeLimit <= 0 {
		return DefaultTimeLimit
	}
	return q.TimeLimit
}
