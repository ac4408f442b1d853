// Package store persists classifier descriptions under a name. The
// file backend keeps one YAML document per model, the sqlite backend a
// model table and the redis backend one hash per model.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/tabmine/bayes-classifier/pkg/config"
)

// ErrNotFound is returned for names that are not in the store
var ErrNotFound = errors.New("model not found")

// ErrInvalidName is returned for names that cannot be stored
var ErrInvalidName = errors.New("invalid model name")

// Model is a stored classifier. Description holds the domain
// statements followed by the classifier description, in the form
// written by bcl induce.
type Model struct {
	Name           string    `db:"name" yaml:"name"`
	ClassifierType string    `db:"classifier_type" yaml:"classifier_type"` // nbc, fbc
	ClassAttribute string    `db:"class_attribute" yaml:"class_attribute"`
	Attributes     int       `db:"attributes" yaml:"attributes"`
	Tuples         float64   `db:"tuples" yaml:"tuples"`
	GenerationDate time.Time `db:"generation_date" yaml:"generation_date"`
	Description    string    `db:"description" yaml:"description"`
}

// Store is implemented by the model store backends
type Store interface {
	Put(ctx context.Context, m *Model) error
	Get(ctx context.Context, name string) (*Model, error)
	// List returns all models sorted by name
	List(ctx context.Context) ([]*Model, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// CheckName rejects names that are empty or could escape a directory
func CheckName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\:*?"<>|`) || strings.HasPrefix(name, ".") {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

// Open opens the backend selected by cfg. The file backend works on fs.
// With a positive cache size the backend is fronted by an LRU cache.
func Open(cfg config.StoreConfig, fs afero.Fs) (Store, error) {
	var s Store
	var err error
	switch cfg.Backend {
	case "file":
		s, err = NewFileStore(fs, cfg.Path)
	case "sqlite":
		s, err = OpenSQLite(cfg.SqliteDSN)
	case "redis":
		s, err = NewRedisStore(cfg.RedisURL, cfg.DatabaseNum, cfg.KeyPrefix)
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		return NewCached(s, cfg.CacheSize)
	}
	return s, nil
}
