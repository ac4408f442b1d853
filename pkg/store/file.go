package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const fileExt = ".yaml"

// FileStore keeps every model as a YAML document in a directory
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore opens the directory dir on fs, creating it if needed
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create store directory %s", dir)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Put writes m, replacing a model of the same name
func (s *FileStore) Put(_ context.Context, m *Model) error {
	if err := CheckName(m.Name); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal model")
	}
	tmp := s.path(m.Name) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "could not write model %s", m.Name)
	}
	return errors.Wrapf(s.fs.Rename(tmp, s.path(m.Name)), "could not write model %s", m.Name)
}

// Get reads the model called name
func (s *FileStore) Get(_ context.Context, name string) (*Model, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path(name))
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%s", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not read model %s", name)
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "could not parse model %s", name)
	}
	m.Name = name
	return &m, nil
}

// List reads all models in the directory
func (s *FileStore) List(ctx context.Context) ([]*Model, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list %s", s.dir)
	}
	var names []string
	for _, fi := range infos {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(fi.Name(), fileExt))
	}
	sort.Strings(names)
	models := make([]*Model, 0, len(names))
	for _, name := range names {
		m, err := s.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Delete removes the model called name
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := CheckName(name); err != nil {
		return err
	}
	err := s.fs.Remove(s.path(name))
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrNotFound, "%s", name)
	}
	return errors.Wrapf(err, "could not delete model %s", name)
}

// Close does nothing for the file backend
func (s *FileStore) Close() error { return nil }
