package app

import (
	"context"
	"strings"
	"unicode/utf8"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// minNameLength is the shortest accepted student or admin display name.
const minNameLength = 2

// TokenStore remembers who is logged in between runs (file, Redis or memory).
type TokenStore interface {
	Load(ctx context.Context) (domain.User, bool, error)
	Save(ctx context.Context, user domain.User) error
	Clear(ctx context.Context) error
}

// AuthService handles student sign-in, the admin password check and the
// persisted login record.
type AuthService struct {
	store  *store.Store
	tokens TokenStore
	log    *logrus.Entry
}

// NewAuthService wires the service. tokens may be nil when the caller keeps
// its own notion of the current user, as the HTTP server does with JWTs.
func NewAuthService(st *store.Store, tokens TokenStore) *AuthService {
	return &AuthService{
		store:  st,
		tokens: tokens,
		log:    logrus.WithField("component", "auth"),
	}
}

// LoginStudent signs a student in by name, creating the account on first use.
// Names match existing students regardless of case.
func (a *AuthService) LoginStudent(ctx context.Context, name string) (domain.User, error) {
	name, err := validName(name)
	if err != nil {
		return domain.User{}, err
	}

	data, err := a.store.Snapshot(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user, ok := data.FindStudent(name)
	if !ok {
		_, err = a.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
			if existing, found := data.FindStudent(name); found {
				user = existing
				return data, nil
			}
			user = domain.User{ID: uuid.NewString(), Name: name, Role: domain.RoleUser}
			data.Users = append(data.Users, user)
			return data, nil
		})
		if err != nil {
			return domain.User{}, err
		}
		a.log.WithField("user", user.Name).Info("student registered")
	}
	return user, a.remember(ctx, user)
}

// LoginAdmin accepts the password of any admin account.
func (a *AuthService) LoginAdmin(ctx context.Context, password string) (domain.User, error) {
	data, err := a.store.Snapshot(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range data.Users {
		if u.IsAdmin() && u.Password == password {
			if u.Password == domain.DefaultAdminPassword {
				a.log.Warn("admin is using the default password; change it with the profile command")
			}
			return u, a.remember(ctx, u)
		}
	}
	return domain.User{}, domain.ErrInvalidCredentials
}

// Current restores the remembered user, refreshed from the store. A record
// whose user no longer exists is cleared.
func (a *AuthService) Current(ctx context.Context) (domain.User, bool, error) {
	if a.tokens == nil {
		return domain.User{}, false, nil
	}
	remembered, ok, err := a.tokens.Load(ctx)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	user, err := a.User(ctx, remembered.ID)
	if err != nil {
		return domain.User{}, false, a.tokens.Clear(ctx)
	}
	if user != remembered {
		if err := a.tokens.Save(ctx, user); err != nil {
			return domain.User{}, false, err
		}
	}
	return user, true, nil
}

// Logout forgets the remembered user.
func (a *AuthService) Logout(ctx context.Context) error {
	if a.tokens == nil {
		return nil
	}
	return a.tokens.Clear(ctx)
}

// User looks up an account by id.
func (a *AuthService) User(ctx context.Context, id string) (domain.User, error) {
	data, err := a.store.Snapshot(ctx)
	if err != nil {
		return domain.User{}, err
	}
	user, ok := data.FindUser(id)
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return user, nil
}

// UpdateProfile renames a user and, when password is not empty, replaces
// their password.
func (a *AuthService) UpdateProfile(ctx context.Context, userID, name, password string) (domain.User, error) {
	name, err := validName(name)
	if err != nil {
		return domain.User{}, err
	}

	var updated domain.User
	_, err = a.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		for i, u := range data.Users {
			if u.ID != userID {
				continue
			}
			u.Name = name
			if password != "" {
				u.Password = password
			}
			data.Users[i] = u
			updated = u
			return data, nil
		}
		return data, domain.ErrNotFound
	})
	if err != nil {
		return domain.User{}, err
	}

	// Current rewrites the remembered record if it belongs to this user.
	if _, _, err := a.Current(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

func (a *AuthService) remember(ctx context.Context, user domain.User) error {
	if a.tokens == nil {
		return nil
	}
	return a.tokens.Save(ctx, user)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < minNameLength {
		return "", domain.ErrInvalidName
	}
	return name, nil
}
