package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	data := DefaultAppData()
	data.Questions = []Question{{ID: "q1", Options: []string{"a", "b"}}}

	clone := data.Clone()
	clone.Questions[0].Options[0] = "changed"
	clone.Users[0].Name = "changed"
	clone.Themes = append(clone.Themes, Theme{ID: "t1"})

	assert.Equal(t, "a", data.Questions[0].Options[0])
	assert.Equal(t, DefaultAdminName, data.Users[0].Name)
	assert.Empty(t, data.Themes)
}

func TestFindStudentIgnoresCaseAndAdmins(t *testing.T) {
	data := DefaultAppData()
	data.Users = append(data.Users, User{ID: "u1", Name: "Ana Silva", Role: RoleUser})

	u, ok := data.FindStudent("ana silva")
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	_, ok = data.FindStudent(DefaultAdminName)
	assert.False(t, ok, "admins are not students")
}

func TestLookupsKeepStoredOrder(t *testing.T) {
	data := AppData{
		Quizzes: []Quiz{{ID: "a", ThemeID: "t1"}, {ID: "b", ThemeID: "t2"}, {ID: "c", ThemeID: "t1"}},
		Questions: []Question{
			{ID: "q2", QuizID: "a"},
			{ID: "q1", QuizID: "a", Options: []string{"x"}},
			{ID: "q3", QuizID: "c"},
		},
	}

	quizzes := data.QuizzesByTheme("t1")
	require.Len(t, quizzes, 2)
	assert.Equal(t, "a", quizzes[0].ID)
	assert.Equal(t, "c", quizzes[1].ID)
	assert.NotNil(t, data.QuizzesByTheme("none"))

	questions := data.QuestionsByQuiz("a")
	require.Len(t, questions, 2)
	assert.Equal(t, "q2", questions[0].ID)
	questions[1].Options[0] = "changed"
	assert.Equal(t, "x", data.Questions[1].Options[0])
}

func TestParseEntityKind(t *testing.T) {
	for raw, want := range map[string]EntityKind{
		"theme":     KindTheme,
		"Quizzes":   KindQuiz,
		" question": KindQuestion,
		"users":     KindUser,
	} {
		got, err := ParseEntityKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseEntityKind("result")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestInvalidWrapsErrInvalidInput(t *testing.T) {
	err := Invalid("theme %q does not exist", "t9")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), `theme "t9" does not exist`)
}
