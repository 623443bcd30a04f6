// Package store holds the single AppData aggregate and persists it wholesale
// through a Backend on every mutation.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"eduquiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Backend persists the serialized aggregate as one blob. Load returns
// domain.ErrNotFound when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
}

// Store is the in-memory owner of the aggregate. Readers get deep copies and
// writers go through Update, so no caller ever edits shared slices.
type Store struct {
	backend Backend
	log     *logrus.Entry
	sf      singleflight.Group
	now     func() time.Time

	mu     sync.RWMutex
	data   domain.AppData
	loaded bool
}

func New(backend Backend) *Store {
	return NewWithClock(backend, time.Now)
}

// NewWithClock is New with a fixed time source for result dates.
func NewWithClock(backend Backend, now func() time.Time) *Store {
	return &Store{
		backend: backend,
		log:     logrus.WithField("component", "store"),
		now:     now,
	}
}

// Snapshot returns a copy of the current aggregate, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) (domain.AppData, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.AppData{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone(), nil
}

// Update derives a new aggregate with fn and persists it. The write lock is
// held across the read, the save and the swap, so concurrent updates apply
// one after the other. When fn or the save fails nothing changes.
func (s *Store) Update(ctx context.Context, fn func(domain.AppData) (domain.AppData, error)) (domain.AppData, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.AppData{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.data.Clone())
	if err != nil {
		return domain.AppData{}, err
	}
	if err := s.saveLocked(ctx, next); err != nil {
		return domain.AppData{}, err
	}
	return next.Clone(), nil
}

// Replace overwrites the aggregate wholesale.
func (s *Store) Replace(ctx context.Context, data domain.AppData) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, normalize(data.Clone()))
}

// AddResult assigns an id and date to a finished result and appends it.
func (s *Store) AddResult(ctx context.Context, result domain.UserResult) (domain.UserResult, error) {
	result.ID = uuid.NewString()
	result.Date = s.now().UTC()
	_, err := s.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		data.Results = append(data.Results, result)
		return data, nil
	})
	if err != nil {
		return domain.UserResult{}, err
	}
	return result, nil
}

func (s *Store) saveLocked(ctx context.Context, next domain.AppData) error {
	blob, err := json.Marshal(next)
	if err != nil {
		return errors.Wrap(err, "encode app data")
	}
	if err := s.backend.Save(ctx, blob); err != nil {
		return errors.Wrap(err, "save app data")
	}
	s.data = next
	return nil
}

// ensureLoaded reads the blob once. Concurrent first callers share a single
// backend read; a missing blob is seeded with the default aggregate.
func (s *Store) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := s.sf.Do("load", func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.loaded {
			return nil, nil
		}

		blob, err := s.backend.Load(ctx)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			s.log.Info("no stored data, seeding defaults")
			if err := s.saveLocked(ctx, domain.DefaultAppData()); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, errors.Wrap(err, "load app data")
		default:
			data, err := Decode(blob)
			if err != nil {
				return nil, err
			}
			s.data = data
		}
		s.loaded = true
		return nil, nil
	})
	return err
}

// Decode parses a JSON blob into an aggregate with non-nil collections.
func Decode(blob []byte) (domain.AppData, error) {
	var data domain.AppData
	if err := json.Unmarshal(blob, &data); err != nil {
		return domain.AppData{}, errors.Wrap(err, "decode app data")
	}
	return normalize(data), nil
}

func normalize(data domain.AppData) domain.AppData {
	if data.Themes == nil {
		data.Themes = []domain.Theme{}
	}
	if data.Quizzes == nil {
		data.Quizzes = []domain.Quiz{}
	}
	if data.Questions == nil {
		data.Questions = []domain.Question{}
	}
	if data.Results == nil {
		data.Results = []domain.UserResult{}
	}
	if data.Users == nil {
		data.Users = []domain.User{}
	}
	return data
}
