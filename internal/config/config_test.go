package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-flash-image-preview", cfg.Gemini.Model)
	assert.Equal(t, 120*time.Second, cfg.Gemini.EditTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Gemini.ReferenceCacheTTL)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "data/studio.db", cfg.Store.DSN())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.Export.UseMinio())
	assert.False(t, cfg.Export.UseRemote())
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/studio")
	t.Setenv("EDIT_TIMEOUT", "45s")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/studio", cfg.Store.DSN())
	assert.Equal(t, 45*time.Second, cfg.Gemini.EditTimeout)
	assert.True(t, cfg.Export.UseMinio())
	assert.Error(t, cfg.RequireAPIKey())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Gemini: GeminiConfig{EditTimeout: time.Second},
			Store:  StoreConfig{Driver: "sqlite"},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Store.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg = base()
	cfg.Store.Driver = "redis"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Gemini.EditTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Export.MinioEndpoint = "localhost:9000"
	assert.ErrorContains(t, cfg.Validate(), "MINIO_ACCESS_KEY")

	cfg = base()
	cfg.Export.RemoteURI = "gs://bucket/exports"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Export.UseRemote())

	cfg = base()
	cfg.Export.RemoteURI = "ftp://bucket"
	assert.ErrorContains(t, cfg.Validate(), "EXPORT_URI")
}
