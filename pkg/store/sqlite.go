package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	// sql driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const modelSchema = `
    CREATE TABLE IF NOT EXISTS model (
	name TEXT PRIMARY KEY,
	classifier_type TEXT,
	class_attribute TEXT,
	attributes INTEGER,
	tuples FLOAT,
	generation_date TIMESTAMP,
	description TEXT
    );`

// SQLiteStore keeps the models in the model table of a SQLite database
type SQLiteStore struct {
	*sqlx.DB
}

// OpenSQLite opens (and if needed creates) the database named by dsn
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "model database %s open", dsn)
	}
	s := &SQLiteStore{DB: db}
	if err := s.CheckDB(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// CheckDB creates the model table if it does not exist
func (s *SQLiteStore) CheckDB() error {
	if _, err := s.Exec(modelSchema); err != nil {
		return errors.Wrap(err, "could not create 'model' table")
	}
	return nil
}

// Put inserts or replaces a model
func (s *SQLiteStore) Put(ctx context.Context, m *Model) error {
	if err := CheckName(m.Name); err != nil {
		return err
	}
	_, err := s.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO model
			(name, classifier_type, class_attribute, attributes, tuples, generation_date, description)
		VALUES (:name, :classifier_type, :class_attribute, :attributes, :tuples, :generation_date, :description);`,
		m)
	if err != nil {
		return errors.Wrapf(err, "could not update '%s' model", m.Name)
	}
	return nil
}

// Get returns the model called name
func (s *SQLiteStore) Get(ctx context.Context, name string) (*Model, error) {
	var m Model
	err := s.GetContext(ctx, &m, "SELECT * FROM model WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "model %s select failed", name)
	}
	return &m, nil
}

// List returns all models ordered by name
func (s *SQLiteStore) List(ctx context.Context) ([]*Model, error) {
	models := make([]*Model, 0)
	if err := s.SelectContext(ctx, &models, "SELECT * FROM model ORDER BY name ASC"); err != nil {
		return nil, errors.Wrap(err, "model select failed")
	}
	return models, nil
}

// Delete removes the model called name
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	res, err := s.ExecContext(ctx, "DELETE FROM model WHERE name = $1", name)
	if err != nil {
		return errors.Wrapf(err, "could not delete '%s' model", name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "%s", name)
	}
	return nil
}
