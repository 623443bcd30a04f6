package http

import (
	"io"
	"net/http"
	"strings"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth     *app.AuthService
	Catalog  *app.CatalogService
	Rankings *app.RankingService
	Play     *app.PlayService
	Data     *app.DataService
}

// NewRouter builds the REST API, the /ws play endpoint and /healthz. When
// accessLog is not nil requests are logged to it in combined log format.
func NewRouter(svc Services, tokens *Tokens, accessLog io.Writer) http.Handler {
	api := &API{svc: svc, tokens: tokens}
	ws := NewWSHandler(svc.Play, api)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/login/student", api.loginStudent).Methods(http.MethodPost)
	s.HandleFunc("/login/admin", api.loginAdmin).Methods(http.MethodPost)

	s.HandleFunc("/themes", api.themes).Methods(http.MethodGet)
	s.HandleFunc("/themes/{id}", api.theme).Methods(http.MethodGet)
	s.HandleFunc("/themes/{id}/quizzes", api.quizzesByTheme).Methods(http.MethodGet)
	s.HandleFunc("/quizzes/{id}", api.quiz).Methods(http.MethodGet)
	s.HandleFunc("/rankings", api.rankings).Methods(http.MethodGet)

	s.Handle("/me", api.authed(api.me)).Methods(http.MethodGet)
	s.Handle("/me", api.admin(api.updateProfile)).Methods(http.MethodPut)
	s.Handle("/me/stats", api.authed(api.myStats)).Methods(http.MethodGet)

	s.Handle("/themes", api.admin(api.createTheme)).Methods(http.MethodPost)
	s.Handle("/quizzes", api.admin(api.createQuiz)).Methods(http.MethodPost)
	s.Handle("/questions", api.admin(api.createQuestion)).Methods(http.MethodPost)
	s.Handle("/quizzes/{id}/questions", api.admin(api.questions)).Methods(http.MethodGet)
	s.Handle("/users", api.admin(api.users)).Methods(http.MethodGet)
	s.Handle("/admin/stats", api.admin(api.dashboard)).Methods(http.MethodGet)
	s.Handle("/admin/data", api.admin(api.exportData)).Methods(http.MethodGet)
	s.Handle("/admin/data", api.admin(api.importData)).Methods(http.MethodPut)
	s.Handle("/admin/results", api.admin(api.clearResults)).Methods(http.MethodDelete)
	s.Handle("/{kind}/{id}", api.admin(api.deleteEntity)).Methods(http.MethodDelete)

	var h http.Handler = r
	if accessLog != nil {
		h = handlers.LoggingHandler(accessLog, h)
	}
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "Accept"}),
	)(h)
}

// authed resolves the bearer token into the current user.
func (a *API) authed(next func(http.ResponseWriter, *http.Request, domain.User)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.userFromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r, user)
	})
}

// admin is authed restricted to the admin role.
func (a *API) admin(next func(http.ResponseWriter, *http.Request, domain.User)) http.Handler {
	return a.authed(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if !user.IsAdmin() {
			writeError(w, domain.ErrForbidden)
			return
		}
		next(w, r, user)
	})
}

// userFromRequest accepts "Authorization: Bearer <jwt>" or a token query
// parameter, which is all a browser websocket can send.
func (a *API) userFromRequest(r *http.Request) (domain.User, error) {
	raw := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); h != "" {
		raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if raw == "" {
		return domain.User{}, domain.ErrUnauthorized
	}
	id, err := a.tokens.Subject(raw)
	if err != nil {
		return domain.User{}, err
	}
	user, err := a.svc.Auth.User(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	return user, nil
}
