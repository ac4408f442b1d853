package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabmine/bayes-classifier/pkg/config"
)

const irisText = `dom(petal) = IR;
dom(iris) = { setosa, versicolor };

nbc(iris) = {
  prob(iris) = {
    setosa    : 2,
    versicolor: 2 };
  prob(petal|iris) = {
    setosa    : N(1.5, 0.5) [2],
    versicolor: N(4.5, 0.5) [2] };
};
`

func model(name string) *Model {
	return &Model{
		Name:           name,
		ClassifierType: "nbc",
		ClassAttribute: "iris",
		Attributes:     2,
		Tuples:         4,
		GenerationDate: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Description:    irisText,
	}
}

// exercise runs the behavior every backend must share
func exercise(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, "iris")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	require.NoError(t, s.Put(ctx, model("iris")))
	require.NoError(t, s.Put(ctx, model("apple")))

	m, err := s.Get(ctx, "iris")
	require.NoError(t, err)
	assert.Equal(t, "iris", m.Name)
	assert.Equal(t, "nbc", m.ClassifierType)
	assert.Equal(t, "iris", m.ClassAttribute)
	assert.Equal(t, 2, m.Attributes)
	assert.Equal(t, 4.0, m.Tuples)
	assert.True(t, model("iris").GenerationDate.Equal(m.GenerationDate), m.GenerationDate.String())
	assert.Equal(t, irisText, m.Description)

	replaced := model("iris")
	replaced.ClassifierType = "fbc"
	require.NoError(t, s.Put(ctx, replaced))
	m, err = s.Get(ctx, "iris")
	require.NoError(t, err)
	assert.Equal(t, "fbc", m.ClassifierType)

	models, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "apple", models[0].Name)
	assert.Equal(t, "iris", models[1].Name)

	require.NoError(t, s.Delete(ctx, "apple"))
	assert.Equal(t, ErrNotFound, errors.Cause(s.Delete(ctx, "apple")))
	models, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 1)

	assert.Equal(t, ErrInvalidName, errors.Cause(s.Put(ctx, model("../escape"))))
}

func TestFileStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewFileStore(fs, "/models")
	require.NoError(t, err)
	exercise(t, s)

	exists, err := afero.Exists(fs, "/models/iris.yaml")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, afero.WriteFile(fs, "/models/notes.txt", []byte("x"), 0644))
	models, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1, "other files are ignored")
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	defer s.Close()
	exercise(t, s)
}

func isRedisAvailable() bool {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return client.Ping(ctx).Err() == nil
}

func TestRedisStore(t *testing.T) {
	if !isRedisAvailable() {
		t.Skip("Redis not available, skipping test")
	}
	s, err := NewRedisStore("redis://localhost:6379", 1, "bcl:test")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, name := range []string{"iris", "apple"} {
		_ = s.Delete(ctx, name)
	}
	exercise(t, s)
	_ = s.Delete(ctx, "iris")
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("not a url", 0, "bcl")
	assert.Error(t, err)
}

// countingStore counts backend reads
type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, name string) (*Model, error) {
	c.gets++
	return c.Store.Get(ctx, name)
}

func TestCached(t *testing.T) {
	fs := afero.NewMemMapFs()
	files, err := NewFileStore(fs, "models")
	require.NoError(t, err)
	backend := &countingStore{Store: files}
	c, err := NewCached(backend, 1)
	require.NoError(t, err)
	exercise(t, c)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, model("apple")))
	backend.gets = 0

	m, err := c.Get(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, 0, backend.gets, "recently written model is cached")
	m.Description = "changed"

	m, err = c.Get(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, irisText, m.Description, "callers get copies")

	_, err = c.Get(ctx, "iris")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.gets)
	_, err = c.Get(ctx, "apple")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.gets, "size one cache evicted apple")
	assert.Equal(t, 1, c.Len())
}

func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig().Store
	cfg.Path = "/data/models"
	s, err := Open(cfg, afero.NewMemMapFs())
	require.NoError(t, err)
	_, ok := s.(*Cached)
	assert.True(t, ok)

	cfg.CacheSize = 0
	s, err = Open(cfg, afero.NewMemMapFs())
	require.NoError(t, err)
	_, ok = s.(*FileStore)
	assert.True(t, ok)

	cfg.Backend = "sqlite"
	cfg.SqliteDSN = filepath.Join(t.TempDir(), "m.db")
	s, err = Open(cfg, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	cfg.Backend = "ftp"
	_, err = Open(cfg, nil)
	assert.Error(t, err)
}
