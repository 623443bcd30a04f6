package app

import (
	"context"
	"strings"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/session"
	"eduquiz-service/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultThemeIcon  = "📚"
	defaultThemeColor = "#2563eb"
)

// booleanOptions are the fixed choices of a boolean question.
var booleanOptions = []string{"True", "False"}

// CatalogService manages themes, quizzes, questions and users.
type CatalogService struct {
	store *store.Store
	log   *logrus.Entry
}

func NewCatalogService(st *store.Store) *CatalogService {
	return &CatalogService{store: st, log: logrus.WithField("component", "catalog")}
}

func (c *CatalogService) Themes(ctx context.Context) ([]domain.Theme, error) {
	data, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return data.Themes, nil
}

func (c *CatalogService) Theme(ctx context.Context, id string) (domain.Theme, error) {
	data, err := c.store.Snapshot(ctx)
	if err != nil {
		return domain.Theme{}, err
	}
	theme, ok := data.FindTheme(id)
	if !ok {
		return domain.Theme{}, domain.ErrNotFound
	}
	return theme, nil
}

// QuizzesByTheme lists the quizzes of a theme; an unknown theme has none.
func (c *CatalogService) QuizzesByTheme(ctx context.Context, themeID string) ([]domain.Quiz, error) {
	data, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return data.QuizzesByTheme(themeID), nil
}

func (c *CatalogService) Quiz(ctx context.Context, id string) (domain.Quiz, error) {
	data, err := c.store.Snapshot(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, ok := data.FindQuiz(id)
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// Questions lists the questions of a quiz in stored order.
func (c *CatalogService) Questions(ctx context.Context, quizID string) ([]domain.Question, error) {
	data, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return data.QuestionsByQuiz(quizID), nil
}

func (c *CatalogService) Users(ctx context.Context) ([]domain.User, error) {
	data, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return data.Users, nil
}

// CreateTheme adds a theme. Icon and color fall back to defaults.
func (c *CatalogService) CreateTheme(ctx context.Context, in domain.Theme) (domain.Theme, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.Theme{}, domain.Invalid("theme name is required")
	}
	if strings.TrimSpace(in.Icon) == "" {
		in.Icon = defaultThemeIcon
	}
	if strings.TrimSpace(in.Color) == "" {
		in.Color = defaultThemeColor
	}
	in.ID = uuid.NewString()

	_, err := c.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		data.Themes = append(data.Themes, in)
		return data, nil
	})
	if err != nil {
		return domain.Theme{}, err
	}
	c.log.WithField("theme", in.ID).Info("theme created")
	return in, nil
}

// CreateQuiz adds a quiz to an existing theme.
func (c *CatalogService) CreateQuiz(ctx context.Context, in domain.Quiz) (domain.Quiz, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.Quiz{}, domain.Invalid("quiz title is required")
	}
	in.ID = uuid.NewString()

	_, err := c.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		if _, ok := data.FindTheme(in.ThemeID); !ok {
			return data, domain.Invalid("theme %q does not exist", in.ThemeID)
		}
		data.Quizzes = append(data.Quizzes, in)
		return data, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	c.log.WithField("quiz", in.ID).Info("quiz created")
	return in, nil
}

// CreateQuestion validates a question for its type and adds it to an
// existing quiz.
func (c *CatalogService) CreateQuestion(ctx context.Context, in domain.Question) (domain.Question, error) {
	q, err := normalizeQuestion(in)
	if err != nil {
		return domain.Question{}, err
	}
	q.ID = uuid.NewString()

	_, err = c.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		if _, ok := data.FindQuiz(q.QuizID); !ok {
			return data, domain.Invalid("quiz %q does not exist", q.QuizID)
		}
		data.Questions = append(data.Questions, q)
		return data, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	c.log.WithFields(logrus.Fields{"quiz": q.QuizID, "question": q.ID}).Info("question created")
	return q, nil
}

func normalizeQuestion(q domain.Question) (domain.Question, error) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return q, domain.Invalid("question text is required")
	}
	if !q.Type.Valid() {
		return q, domain.Invalid("unknown question type %q", q.Type)
	}
	if q.TimeLimit <= 0 {
		q.TimeLimit = session.DefaultTimeLimit
	}

	options := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	q.Options = options

	switch q.Type {
	case domain.QuestionBoolean:
		q.Options = append([]string(nil), booleanOptions...)
		q.CorrectAnswerText = ""
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex > 1 {
			return q, domain.Invalid("boolean answer index must be 0 or 1")
		}
	case domain.QuestionMultiple:
		q.CorrectAnswerText = ""
		if len(q.Options) < 2 {
			return q, domain.Invalid("multiple choice needs at least 2 options")
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
			return q, domain.Invalid("correct answer index %d out of range", q.CorrectAnswerIndex)
		}
	case domain.QuestionShortAnswer:
		q.Options = []string{}
		q.CorrectAnswerIndex = 0
		q.CorrectAnswerText = strings.TrimSpace(q.CorrectAnswerText)
		if q.CorrectAnswerText == "" {
			return q, domain.Invalid("short answer needs the expected text")
		}
	case domain.QuestionOrdering:
		q.CorrectAnswerIndex = 0
		q.CorrectAnswerText = ""
		if len(q.Options) < 2 {
			return q, domain.Invalid("ordering needs at least 2 items")
		}
	}
	return q, nil
}

// Delete removes one entity. Themes take their quizzes and those quizzes'
// questions with them; quizzes take their questions. Results are kept.
func (c *CatalogService) Delete(ctx context.Context, kind domain.EntityKind, id string) error {
	var apply func(domain.AppData, string) (domain.AppData, error)
	switch kind {
	case domain.KindTheme:
		apply = deleteTheme
	case domain.KindQuiz:
		apply = deleteQuiz
	case domain.KindQuestion:
		apply = deleteQuestion
	case domain.KindUser:
		apply = deleteUser
	default:
		return domain.ErrUnknownKind
	}

	_, err := c.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		return apply(data, id)
	})
	if err != nil {
		return err
	}
	c.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("deleted")
	return nil
}

func deleteTheme(data domain.AppData, id string) (domain.AppData, error) {
	if _, ok := data.FindTheme(id); !ok {
		return data, domain.ErrNotFound
	}
	themes := data.Themes[:0]
	for _, t := range data.Themes {
		if t.ID != id {
			themes = append(themes, t)
		}
	}
	data.Themes = themes

	for _, q := range data.QuizzesByTheme(id) {
		data, _ = deleteQuiz(data, q.ID)
	}
	return data, nil
}

func deleteQuiz(data domain.AppData, id string) (domain.AppData, error) {
	if _, ok := data.FindQuiz(id); !ok {
		return data, domain.ErrNotFound
	}
	quizzes := data.Quizzes[:0]
	for _, q := range data.Quizzes {
		if q.ID != id {
			quizzes = append(quizzes, q)
		}
	}
	data.Quizzes = quizzes

	questions := data.Questions[:0]
	for _, q := range data.Questions {
		if q.QuizID != id {
			questions = append(questions, q)
		}
	}
	data.Questions = questions
	return data, nil
}

func deleteQuestion(data domain.AppData, id string) (domain.AppData, error) {
	for i, q := range data.Questions {
		if q.ID == id {
			data.Questions = append(data.Questions[:i], data.Questions[i+1:]...)
			return data, nil
		}
	}
	return data, domain.ErrNotFound
}

func deleteUser(data domain.AppData, id string) (domain.AppData, error) {
	for i, u := range data.Users {
		if u.ID != id {
			continue
		}
		if u.IsAdmin() {
			return data, domain.ErrProtectedUser
		}
		data.Users = append(data.Users[:i], data.Users[i+1:]...)
		return data, nil
	}
	return data, domain.ErrNotFound
}
