package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, map[string]any{
		"http_addr":               ":9000",
		"database_dsn":            "",
		"token_validity_duration": "15m",
		"blob_store":              "s3",
		"s3_bucket":               "files",
	})

	t.Run("overlays present fields", func(t *testing.T) {
		os.Args = []string{"server", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		cfg.DatabaseDSN = "postgres://x"
		parseJson(cfg)

		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, "", cfg.DatabaseDSN, "explicit empty string wins")
		assert.Equal(t, 15*time.Minute, cfg.TokenValidityDuration)
		assert.Equal(t, BlobStoreS3, cfg.BlobStore)
		assert.Equal(t, "files", cfg.S3Bucket)
		assert.Equal(t, ":50051", cfg.GRPCAddr)
		assert.Equal(t, "secretKey", cfg.SecretKey)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"server"}
		cfg := &Config{HTTPAddr: ":1"}
		parseJson(cfg)
		assert.Equal(t, ":1", cfg.HTTPAddr)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"server", "-config", bad}
		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"server", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
