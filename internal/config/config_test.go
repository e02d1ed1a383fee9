package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/searchsync/searchsync/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searchsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
entities:
  - name: post
    primary_key: id
    fields: [title, content]
`

func TestLoad_MinimalConfigGetsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "english", cfg.DefaultAnalyzer)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 256, cfg.Cache.Size)
	require.Len(t, cfg.Entities, 1)
	assert.Equal(t, "post", cfg.Entities[0].Name)
	assert.Equal(t, []string{"title", "content"}, cfg.Entities[0].Fields)
}

func TestLoad_FullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
index_dir: ./idx
store_path: ./records.db
default_analyzer: simple
logging:
  level: debug
cache:
  enabled: false
  size: 64
entities:
  - name: post
    primary_key: id
    fields: [title]
  - name: note
    primary_key: key
    fields: [body]
    analyzer: keyword
`))
	require.NoError(t, err)

	assert.Equal(t, "simple", cfg.DefaultAnalyzer)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Cache.Enabled)
	assert.True(t, filepath.IsAbs(cfg.IndexDir))
	assert.True(t, filepath.IsAbs(cfg.StorePath))
	require.Len(t, cfg.Entities, 2)
	assert.Equal(t, "keyword", cfg.Entities[1].Analyzer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeConfigNotFound, serrors.GetCode(err))
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "entities: [unclosed"))
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeConfigInvalid, serrors.GetCode(err))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEARCHSYNC_LOG_LEVEL", "warn")
	t.Setenv("SEARCHSYNC_DEFAULT_ANALYZER", "standard")
	t.Setenv("SEARCHSYNC_CACHE_SIZE", "16")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "standard", cfg.DefaultAnalyzer)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.True(t, cfg.Cache.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "unknown default analyzer",
			yaml: `
default_analyzer: porter2
entities:
  - {name: post, primary_key: id, fields: [title]}
`,
			wantErr: "analyzer",
		},
		{
			name: "bad log level",
			yaml: `
logging: {level: verbose}
entities:
  - {name: post, primary_key: id, fields: [title]}
`,
			wantErr: "logging.level",
		},
		{
			name:    "no entities",
			yaml:    `default_analyzer: english`,
			wantErr: "at least one entity",
		},
		{
			name: "duplicate entity",
			yaml: `
entities:
  - {name: post, primary_key: id, fields: [title]}
  - {name: post, primary_key: id, fields: [body]}
`,
			wantErr: "declared twice",
		},
		{
			name: "missing primary key",
			yaml: `
entities:
  - {name: post, fields: [title]}
`,
			wantErr: "primary_key",
		},
		{
			name: "no fields",
			yaml: `
entities:
  - {name: post, primary_key: id}
`,
			wantErr: "searchable fields",
		},
		{
			name: "unknown entity analyzer",
			yaml: `
entities:
  - {name: post, primary_key: id, fields: [title], analyzer: stemming}
`,
			wantErr: "unknown analyzer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Equal(t, serrors.ErrCodeConfigInvalid, serrors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Entities = []EntityConfig{{Name: "post", PrimaryKey: "id", Fields: []string{"title"}}}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.DefaultAnalyzer, loaded.DefaultAnalyzer)
	assert.Equal(t, cfg.Entities, loaded.Entities)
}
