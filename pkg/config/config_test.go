package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, "naive", c.Classifier.Type)
	assert.Equal(t, 0.5, c.Execution.Threshold)
	assert.Equal(t, "bc", c.Execution.ClassColumn)
	assert.Equal(t, "%.3f", c.Execution.ProbFormat)
	assert.Equal(t, "file", c.Store.Backend)

	f := c.TableFormat()
	assert.Equal(t, "?", f.NullChars)
	assert.False(t, f.Weights)
}

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	c, err := LoadConfig(fs, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	_, err = LoadConfig(fs, "/etc/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")

	path := "/etc/bcl.yaml"
	require.NoError(t, afero.WriteFile(fs, path, []byte(`
classifier:
  type: full
  laplace: 1
execution:
  threshold: 0.8
store:
  backend: sqlite
`), 0644))
	c, err = LoadConfig(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "full", c.Classifier.Type)
	assert.Equal(t, 1.0, c.Classifier.Laplace)
	assert.Equal(t, 0.8, c.Execution.Threshold)
	assert.Equal(t, "sqlite", c.Store.Backend)
	assert.Equal(t, "models.db", c.Store.SqliteDSN, "unset keys keep their defaults")

	require.NoError(t, afero.WriteFile(fs, path, []byte("classifier: [unclosed"), 0644))
	_, err = LoadConfig(fs, path)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	c := DefaultConfig()
	c.Classifier.Simplify = "remove"
	c.Logging.Level = "debug"
	fs := afero.NewMemMapFs()
	path := "/home/user/nested/dir/bcl.yaml"
	require.NoError(t, c.SaveConfig(fs, path))
	exists, err := afero.DirExists(fs, "/home/user/nested/dir")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := LoadConfig(fs, path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"bad type", func(c *Config) { c.Classifier.Type = "tree" }, "classifier type"},
		{"negative laplace", func(c *Config) { c.Classifier.Laplace = -1 }, "laplace"},
		{"bad simplify", func(c *Config) { c.Classifier.Simplify = "both" }, "simplify"},
		{"simplify full", func(c *Config) {
			c.Classifier.Type = "full"
			c.Classifier.Simplify = "add"
		}, "only supported for naive"},
		{"bad criterion", func(c *Config) { c.Classifier.Criterion = "auc" }, "criterion"},
		{"threshold", func(c *Config) { c.Execution.Threshold = 1.5 }, "threshold"},
		{"class column", func(c *Config) { c.Execution.ClassColumn = "" }, "class_column"},
		{"separators", func(c *Config) { c.Table.FieldSeps = "" }, "field_seps"},
		{"backend", func(c *Config) { c.Store.Backend = "s3" }, "store backend"},
		{"redis url", func(c *Config) {
			c.Store.Backend = "redis"
			c.Store.RedisURL = ""
		}, "redis_url"},
		{"cache", func(c *Config) { c.Store.CacheSize = -1 }, "cache_size"},
		{"level", func(c *Config) { c.Logging.Level = "trace" }, "invalid logging level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "invalid logging format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
