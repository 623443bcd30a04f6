package http

import (
	"encoding/json"
	"io"
	"net/http"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/ranking"
	"github.com/gorilla/mux"
	"github.com/munnerz/goautoneg"
	"gopkg.in/yaml.v3"
)

// maxImportSize bounds PUT /api/admin/data bodies.
const maxImportSize = 10 << 20

// API holds the REST handlers.
type API struct {
	svc    Services
	tokens *Tokens
}

type userView struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

func viewOf(u domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Role: u.Role}
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type studentLogin struct {
	Name string `json:"name"`
}

type adminLogin struct {
	Password string `json:"password"`
}

type profileUpdate struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// publicQuiz hides answers from students.
type publicQuiz struct {
	domain.Quiz
	QuestionCount int `json:"questionCount"`
}

type dashboardResponse struct {
	ranking.Stats
	Users []ranking.UserAverage `json:"users"`
}

func (a *API) loginStudent(w http.ResponseWriter, r *http.Request) {
	var in studentLogin
	if !decode(w, r, &in) {
		return
	}
	user, err := a.svc.Auth.LoginStudent(r.Context(), in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	a.issue(w, user)
}

func (a *API) loginAdmin(w http.ResponseWriter, r *http.Request) {
	var in adminLogin
	if !decode(w, r, &in) {
		return
	}
	user, err := a.svc.Auth.LoginAdmin(r.Context(), in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	a.issue(w, user)
}

func (a *API) issue(w http.ResponseWriter, user domain.User) {
	token, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: viewOf(user)})
}

func (a *API) me(w http.ResponseWriter, _ *http.Request, user domain.User) {
	writeJSON(w, http.StatusOK, viewOf(user))
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	var in profileUpdate
	if !decode(w, r, &in) {
		return
	}
	updated, err := a.svc.Auth.UpdateProfile(r.Context(), user.ID, in.Name, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(updated))
}

func (a *API) myStats(w http.ResponseWriter, r *http.Request, user domain.User) {
	stats, err := a.svc.Rankings.ForUser(r.Context(), user.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) themes(w http.ResponseWriter, r *http.Request) {
	themes, err := a.svc.Catalog.Themes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themes)
}

func (a *API) theme(w http.ResponseWriter, r *http.Request) {
	theme, err := a.svc.Catalog.Theme(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

func (a *API) quizzesByTheme(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.svc.Catalog.QuizzesByTheme(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]publicQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		questions, err := a.svc.Catalog.Questions(r.Context(), q.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, publicQuiz{Quiz: q, QuestionCount: len(questions)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) quiz(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	quiz, err := a.svc.Catalog.Quiz(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	questions, err := a.svc.Catalog.Questions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publicQuiz{Quiz: quiz, QuestionCount: len(questions)})
}

func (a *API) rankings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := ranking.ParseScope(q.Get("scope"), q.Get("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	standings, err := a.svc.Rankings.Leaderboard(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (a *API) createTheme(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Theme
	if !decode(w, r, &in) {
		return
	}
	theme, err := a.svc.Catalog.CreateTheme(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, theme)
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Quiz
	if !decode(w, r, &in) {
		return
	}
	quiz, err := a.svc.Catalog.CreateQuiz(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) createQuestion(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Question
	if !decode(w, r, &in) {
		return
	}
	q, err := a.svc.Catalog.CreateQuestion(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (a *API) questions(w http.ResponseWriter, r *http.Request, _ domain.User) {
	questions, err := a.svc.Catalog.Questions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) users(w http.ResponseWriter, r *http.Request, _ domain.User) {
	users, err := a.svc.Catalog.Users(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]userView, len(users))
	for i, u := range users {
		out[i] = viewOf(u)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) deleteEntity(w http.ResponseWriter, r *http.Request, _ domain.User) {
	vars := mux.Vars(r)
	kind, err := domain.ParseEntityKind(vars["kind"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.svc.Catalog.Delete(r.Context(), kind, vars["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request, _ domain.User) {
	stats, err := a.svc.Rankings.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := a.svc.Rankings.UserAverages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Stats: stats, Users: users})
}

var exportTypes = []string{"application/json", "application/yaml", "application/x-yaml", "text/yaml"}

// exportData answers in JSON unless the Accept header prefers YAML.
func (a *API) exportData(w http.ResponseWriter, r *http.Request, _ domain.User) {
	data, err := a.svc.Data.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	contentType := "application/json"
	if accept := r.Header.Get("Accept"); accept != "" {
		contentType = goautoneg.Negotiate(accept, exportTypes)
	}
	switch contentType {
	case "application/json":
		w.Header().Set("Content-Disposition", `attachment; filename="eduquiz.json"`)
		writeJSON(w, http.StatusOK, data)
	case "":
		writeJSON(w, http.StatusNotAcceptable, errorPayload{Message: "export is available as JSON or YAML"})
	default:
		out, err := yaml.Marshal(data)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", `attachment; filename="eduquiz.yaml"`)
		w.WriteHeader(http.StatusOK)
		w.Write(out)
	}
}

func (a *API) importData(w http.ResponseWriter, r *http.Request, _ domain.User) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		writeError(w, domain.Invalid("read body: %v", err))
		return
	}
	data, err := a.svc.Data.Import(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"themes":    len(data.Themes),
		"quizzes":   len(data.Quizzes),
		"questions": len(data.Questions),
		"results":   len(data.Results),
		"users":     len(data.Users),
	})
}

func (a *API) clearResults(w http.ResponseWriter, r *http.Request, _ domain.User) {
	removed, err := a.svc.Data.ClearResults(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, domain.Invalid("malformed request body: %v", err))
		return false
	}
	return true
}
