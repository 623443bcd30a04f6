package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExportImportJSON(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := app.NewDataService(env.store)

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(exported)
	require.NoError(t, err)

	_, err = app.NewCatalogService(env.store).CreateTheme(ctx, domain.Theme{Name: "History"})
	require.NoError(t, err)

	imported, err := svc.Import(ctx, raw)
	require.NoError(t, err)
	assert.Len(t, imported.Themes, 1)

	data, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Themes, 1)
	assert.Len(t, data.Questions, 2)
}

func TestImportYAML(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := app.NewDataService(env.store)

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	raw, err := yaml.Marshal(exported)
	require.NoError(t, err)

	imported, err := svc.Import(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, exported.Quizzes, imported.Quizzes)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := app.NewDataService(env.store)

	cases := map[string]string{
		"empty":         ``,
		"not an object": `[1, 2]`,
		"missing users": `{"themes":[],"quizzes":[],"questions":[],"results":[]}`,
		"bad type":      `{"themes":[],"quizzes":[],"questions":[{"id":"q","quizId":"z","type":"essay","text":"x"}],"results":[],"users":[{"id":"a","name":"A","role":"admin"}]}`,
		"blank id":      `{"themes":[{"id":" ","name":"T"}],"quizzes":[],"questions":[],"results":[],"users":[{"id":"a","name":"A","role":"admin"}]}`,
		"no admin":      `{"themes":[],"quizzes":[],"questions":[],"results":[],"users":[{"id":"u","name":"Ana","role":"user"}]}`,
		"blank option":  `{"themes":[],"quizzes":[],"questions":[{"id":"q","quizId":"z","type":"multiple","text":"x","options":["", "b"]}],"results":[],"users":[{"id":"a","name":"A","role":"admin"}]}`,
		"index range":   `{"themes":[],"quizzes":[],"questions":[{"id":"q","quizId":"z","type":"multiple","text":"x","options":["a","b"],"correctAnswerIndex":5}],"results":[],"users":[{"id":"a","name":"A","role":"admin"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Import(ctx, []byte(raw))
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	data, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, data.Quizzes, 2, "rejected imports leave data untouched")
}

func TestImportNormalizesBooleanQuestions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := app.NewDataService(env.store)

	raw := `{"themes":[],"quizzes":[],"questions":[{"id":"q","quizId":"z","type":"boolean","text":"Sky is blue?","options":["Sim","Só"],"correctAnswerIndex":0}],"results":[],"users":[{"id":"a","name":"A","role":"admin"}]}`
	imported, err := svc.Import(ctx, []byte(raw))
	require.NoError(t, err)
	require.Len(t, imported.Questions, 1)
	assert.Equal(t, []string{"True", "False"}, imported.Questions[0].Options)
	assert.Equal(t, 20, imported.Questions[0].TimeLimit)

	data, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"True", "False"}, data.Questions[0].Options)
}

func TestClearResults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := app.NewDataService(env.store)
	for i := 0; i < 3; i++ {
		_, err := env.store.AddResult(ctx, domain.UserResult{UserName: "Ana", QuizID: "quiz-1", TotalQuestions: 2})
		require.NoError(t, err)
	}

	removed, err := svc.ClearResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	data, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.Results)
	assert.Len(t, data.Users, 1)
}
