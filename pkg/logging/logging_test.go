package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabmine/bayes-classifier/pkg/config"
)

func TestSetupFormats(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LoggingConfig
		check  func(t *testing.T, out string)
		hidden bool
	}{
		{
			name: "json",
			cfg:  config.LoggingConfig{Level: "info", Format: "json"},
			check: func(t *testing.T, out string) {
				var rec map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &rec))
				assert.Equal(t, "reading", rec["msg"])
				assert.Equal(t, "iris.tab", rec["file"])
			},
		},
		{
			name: "text",
			cfg:  config.LoggingConfig{Level: "debug", Format: "text"},
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "reading")
				assert.Contains(t, out, "iris.tab")
			},
		},
		{
			name:   "below level",
			cfg:    config.LoggingConfig{Level: "error", Format: "text"},
			hidden: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log, sugar, err := setup(tt.cfg, &buf)
			require.NoError(t, err)
			require.NotNil(t, sugar)
			buf.Reset()
			sugar.Infow("reading", "file", "iris.tab")
			_ = log.Sync()
			if tt.hidden {
				assert.Empty(t, buf.String())
				return
			}
			tt.check(t, buf.String())
		})
	}
}

func TestSetupWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bcl.log")
	log, _, err := Setup(config.LoggingConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	log.Info("building classifier")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "building classifier")
	assert.Contains(t, string(data), "INFO")
}

func TestSetupRejectsBadConfig(t *testing.T) {
	_, _, err := Setup(config.LoggingConfig{Level: "loud", Format: "text"})
	assert.Error(t, err)
	_, _, err = Setup(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
