// Package store persists model records. The geometry engine never talks to
// storage; callers load a record, hand its model to a workspace and save the
// workspace's model back.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/chazu/steelframe/pkg/model"
)

var (
	ErrNotFound      = errors.New("store: model not found")
	ErrUnknownDriver = errors.New("store: unknown driver")
	ErrIDExhausted   = errors.New("store: could not generate a free id")
)

// Store is the persistence collaborator. Ids compare case-insensitively.
type Store interface {
	List(ctx context.Context) ([]model.Record, error)
	Load(ctx context.Context, id string) (model.Record, error)
	Save(ctx context.Context, rec model.Record) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects the named driver. path is a file path for the file and
// sqlite drivers and a connection string for postgres.
func Open(ctx context.Context, driver, path string, logger *zap.Logger) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return OpenFile(path)
	case DriverSQLite:
		return OpenSQLite(ctx, path)
	case DriverPostgres:
		return OpenPostgres(ctx, path, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// idAlphabet omits I, O, 0 and 1 so ids read back unambiguously.
const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	idLength   = 6
	idAttempts = 32
)

// NewID returns a short random id not yet used in s.
func NewID(ctx context.Context, s Store) (string, error) {
	for range idAttempts {
		b := make([]byte, idLength)
		for i := range b {
			b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
		}
		id := string(b)
		_, err := s.Load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrIDExhausted
}

// CreateProjectFromTemplate copies a template's model into a new project
// record and saves it. An empty name becomes "<template name> (Copy)".
func CreateProjectFromTemplate(ctx context.Context, s Store, templateID, name string) (model.Record, error) {
	tmpl, err := s.Load(ctx, templateID)
	if err != nil {
		return model.Record{}, fmt.Errorf("store: template %s: %w", templateID, err)
	}
	id, err := NewID(ctx, s)
	if err != nil {
		return model.Record{}, err
	}
	if name == "" {
		name = tmpl.Name + " (Copy)"
	}
	rec := model.Record{
		ID:      id,
		Type:    model.TypeProject,
		Name:    name,
		Created: time.Now().UTC(),
		Data:    tmpl.Data.Clone(),
	}
	if err := s.Save(ctx, rec); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}

// Templates filters recs to templates. Records without a type predate
// projects and count as templates.
func Templates(recs []model.Record) []model.Record {
	return lo.Filter(recs, func(r model.Record, _ int) bool {
		return r.Type == model.TypeTemplate || r.Type == ""
	})
}

// Projects filters recs to projects.
func Projects(recs []model.Record) []model.Record {
	return lo.Filter(recs, func(r model.Record, _ int) bool {
		return r.Type == model.TypeProject
	})
}

func sameID(a, b string) bool {
	return strings.EqualFold(a, b)
}

// cloneRecord returns rec with its model deep-copied, so callers never share
// part slices with a store.
func cloneRecord(rec model.Record) model.Record {
	rec.Data = rec.Data.Clone()
	return rec
}
