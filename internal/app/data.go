package app

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed appdata.schema.json
var appDataSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(appDataSchema)

func init() {
	gojsonschema.FormatCheckers.Add("non-blank", nonBlankChecker{})
}

type nonBlankChecker struct{}

func (nonBlankChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return strings.TrimSpace(s) != ""
}

// DataService exports, imports and prunes the whole aggregate.
type DataService struct {
	store *store.Store
	log   *logrus.Entry
}

func NewDataService(st *store.Store) *DataService {
	return &DataService{store: st, log: logrus.WithField("component", "data")}
}

// Export returns a copy of everything stored.
func (d *DataService) Export(ctx context.Context) (domain.AppData, error) {
	return d.store.Snapshot(ctx)
}

// Import replaces the aggregate with a JSON or YAML document. The document
// must satisfy the data schema and keep at least one admin account; questions
// get the same per-type checks and defaults as when they are authored.
func (d *DataService) Import(ctx context.Context, raw []byte) (domain.AppData, error) {
	doc, err := toJSON(raw)
	if err != nil {
		return domain.AppData{}, err
	}

	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return domain.AppData{}, domain.Invalid("unreadable document: %v", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.AppData{}, domain.Invalid("%s", strings.Join(msgs, "; "))
	}

	data, err := store.Decode(doc)
	if err != nil {
		return domain.AppData{}, domain.Invalid("%v", err)
	}
	for i, q := range data.Questions {
		nq, err := normalizeQuestion(q)
		if err != nil {
			return domain.AppData{}, errors.Wrapf(err, "question %q", q.ID)
		}
		data.Questions[i] = nq
	}
	hasAdmin := false
	for _, u := range data.Users {
		if u.IsAdmin() {
			hasAdmin = true
			break
		}
	}
	if !hasAdmin {
		return domain.AppData{}, domain.Invalid("imported data has no admin user")
	}

	if err := d.store.Replace(ctx, data); err != nil {
		return domain.AppData{}, err
	}
	d.log.WithFields(logrus.Fields{
		"themes":    len(data.Themes),
		"quizzes":   len(data.Quizzes),
		"questions": len(data.Questions),
		"results":   len(data.Results),
		"users":     len(data.Users),
	}).Info("data imported")
	return data, nil
}

// ClearResults deletes every recorded result and reports how many there were.
func (d *DataService) ClearResults(ctx context.Context) (int, error) {
	removed := 0
	_, err := d.store.Update(ctx, func(data domain.AppData) (domain.AppData, error) {
		removed = len(data.Results)
		data.Results = []domain.UserResult{}
		return data, nil
	})
	if err != nil {
		return 0, err
	}
	d.log.WithField("results", removed).Info("results cleared")
	return removed, nil
}

// toJSON passes JSON through and converts YAML documents to JSON.
func toJSON(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.Invalid("empty document")
	}
	if json.Valid(trimmed) {
		return trimmed, nil
	}
	var doc interface{}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, domain.Invalid("document is neither JSON nor YAML: %v", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "convert yaml document")
	}
	return out, nil
}
