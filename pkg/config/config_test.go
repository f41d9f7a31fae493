package config

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/openmined/arfsync/internal/db"
	"github.com/openmined/arfsync/pkg/arfs"
	"github.com/openmined/arfsync/pkg/localtree"
	"github.com/openmined/arfsync/pkg/localwrite"
	"github.com/openmined/arfsync/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Encrypted)
	assert.Equal(t, localwrite.Upsert, cfg.Policy)
	assert.Equal(t, "upsert", cfg.ConflictPolicy)
	assert.Equal(t, manifest.DefaultGateway, cfg.GatewayURL)
	assert.Equal(t, manifest.DefaultName, cfg.ManifestName)
	assert.Equal(t, DefaultResolveConcurrency, cfg.ResolveConcurrency)
	assert.Empty(t, cfg.ExcludedNames)
	assert.True(t, filepath.IsAbs(cfg.IndexDBPath))
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arfsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
encrypted: true
conflict_policy: replace
gateway_url: https://gw.example.org/
resolve_concurrency: 8
excluded_names: [Thumbs.db, " .git "]
index_db_path: ":memory:"
log_level: debug
`), 0o644))

	t.Setenv("ARFSYNC_CONFLICT_POLICY", "skip")
	t.Setenv("ARFSYNC_MANIFEST_NAME", "site.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Encrypted)
	assert.Equal(t, localwrite.Skip, cfg.Policy)
	assert.Equal(t, "https://gw.example.org", cfg.GatewayURL)
	assert.Equal(t, "site.json", cfg.ManifestName)
	assert.Equal(t, 8, cfg.ResolveConcurrency)
	assert.Equal(t, []string{"Thumbs.db", ".git"}, cfg.ExcludedNames)
	assert.Equal(t, db.MemoryPath, cfg.IndexDBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, path, cfg.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "config read")
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{
		ConflictPolicy:     "overwrite",
		GatewayURL:         "ftp://gw.example.org",
		ManifestName:       "a/b.json",
		ResolveConcurrency: -1,
		IndexDBPath:        db.MemoryPath,
		LogLevel:           "loud",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, localwrite.ErrInvalidPolicy)
	for _, part := range []string{"gateway url", "path separators", "concurrency", "log level"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "arfsync.json")

	cfg := &Config{
		Encrypted:          true,
		ConflictPolicy:     "replace",
		GatewayURL:         "http://localhost:1984",
		ManifestName:       "m.json",
		ResolveConcurrency: 2,
		ExcludedNames:      []string{"Thumbs.db"},
		IndexDBPath:        filepath.Join(dir, "index.db"),
		LogLevel:           "warn",
	}
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	loaded.Path = ""
	assert.Equal(t, cfg, loaded)
}

func TestBuilderOptions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("k"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Thumbs.db"), []byte("t"), 0o644))

	cfg := &Config{Encrypted: true, ExcludedNames: []string{"Thumbs.db"}, IndexDBPath: db.MemoryPath}
	require.NoError(t, cfg.Validate())

	builder := localtree.NewBuilder(cfg.BuilderOptions()...)
	assert.Equal(t, localtree.DefaultLimits().MaxEncryptedFileSize, builder.MaxFileSize())

	folder, err := builder.BuildFolder(dir)
	require.NoError(t, err)
	require.Len(t, folder.Files, 1)
	assert.Equal(t, "keep.txt", folder.Files[0].BaseName())
}

func TestGatewaySource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "data at "+r.URL.Path)
	}))
	defer srv.Close()

	cfg := &Config{GatewayURL: srv.URL + "/", IndexDBPath: db.MemoryPath}
	require.NoError(t, cfg.Validate())

	txID := arfs.TransactionID("tx-0000000000000000000000000000000000000000")
	body, err := cfg.GatewaySource().Open(context.Background(), txID)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data at /"+txID.String(), string(data))
}
