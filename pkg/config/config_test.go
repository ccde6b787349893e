package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/compression"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/logger"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewDefault()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, columnar.DefaultViewPolicy, cfg.Columns)
	assert.Positive(t, cfg.Execution.Workers)
	assert.Equal(t, compression.Zstd, cfg.Ingest.Compression.Algorithm)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"negative view size", func(c *Config) { c.Columns.MinViewSize = -1 }, "columns.min_view_size"},
		{"negative workers", func(c *Config) { c.Execution.Workers = -2 }, "execution.workers"},
		{"zero frame size", func(c *Config) { c.Ingest.MaxFrameSize = 0 }, "ingest.max_frame_size"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"log encoding", func(c *Config) { c.Logging.Encoding = "xml" }, "logging.encoding"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"sampling", func(c *Config) { c.Tracing.SamplingRate = 1.5 }, "tracing.sampling_rate"},
		{"metrics address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "" }, "metrics.address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	cfg := NewDefault()
	cfg.Ingest.Compression.Algorithm = "rar"
	assert.True(t, errors.IsType(cfg.Validate(), errors.ErrorTypeConfig))
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colframe.yaml")

	cfg := NewDefault()
	cfg.Columns.MinViewSize = 10
	cfg.Execution.Workers = 3
	cfg.Ingest.Compression.Algorithm = compression.S2
	cfg.Logging.Level = "debug"
	cfg.Logging.OutputPaths = []string{"stderr"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadSubstitutesEnvironment(t *testing.T) {
	t.Setenv("COLFRAME_TEST_CODEC", "snappy")
	t.Setenv("COLFRAME_TEST_EMPTY", "")

	path := filepath.Join(t.TempDir(), "env.yaml")
	content := `
ingest:
  compression:
    algorithm: ${COLFRAME_TEST_CODEC}
logging:
  level: ${COLFRAME_TEST_EMPTY:-error}
tracing:
  service_name: "${COLFRAME_TEST_NOT_SET}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, compression.Snappy, cfg.Ingest.Compression.Algorithm)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Empty(t, cfg.Tracing.ServiceName)
	// Untouched sections keep their defaults.
	assert.Equal(t, columnar.DefaultViewPolicy, cfg.Columns)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("columns: [1, 2"), 0o600))
	_, err = Load(path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))
	_, err = Load(path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestApply(t *testing.T) {
	previous := columnar.CurrentViewPolicy()
	t.Cleanup(func() {
		require.NoError(t, columnar.SetViewPolicy(previous))
		logger.Set(nil)
	})

	cfg := NewDefault()
	cfg.Columns.MinViewSize = 7
	cfg.Logging.Level = "error"
	require.NoError(t, cfg.Apply())
	assert.Equal(t, 7, columnar.CurrentViewPolicy().MinViewSize)

	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Apply())
}

func TestCodec(t *testing.T) {
	cfg := NewDefault()
	cfg.Ingest.Compression = compression.Config{Algorithm: compression.LZ4, Level: compression.Best}
	comp, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, compression.LZ4, comp.Algorithm())
	assert.Equal(t, compression.Best, comp.Level())
}
