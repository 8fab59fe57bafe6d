package hub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFileWithDirs(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func TestFileURL(t *testing.T) {
	repo := New("google-bert/bert-base-uncased")
	assert.Equal(t,
		"https://huggingface.co/google-bert/bert-base-uncased/resolve/main/tokenizer.json",
		repo.FileURL("tokenizer.json"))

	repo = repo.WithRevision("refs/pr/1")
	assert.Equal(t,
		"https://huggingface.co/google-bert/bert-base-uncased/resolve/refs/pr/1/tokenizer.json",
		repo.FileURL("tokenizer.json"))
}

func TestFileCachePath(t *testing.T) {
	repo := New("google-bert/bert-base-uncased").WithCacheDir("/tmp/cache")
	want := filepath.Join("/tmp/cache",
		"models--google-bert--bert-base-uncased", "snapshots", "main", "tokenizer.json")
	assert.Equal(t, want, repo.FileCachePath("tokenizer.json"))
}

func TestIsCached(t *testing.T) {
	cacheDir := t.TempDir()
	repo := New("org/model").WithCacheDir(cacheDir)
	assert.False(t, repo.IsCached("tokenizer.json"))

	// Materialize the file the way a finished download would.
	path := repo.FileCachePath("tokenizer.json")
	require.NoError(t, writeFileWithDirs(path, []byte("{}")))
	assert.True(t, repo.IsCached("tokenizer.json"))
	// A cached file short-circuits HasFile without touching the network.
	assert.True(t, repo.HasFile("tokenizer.json"))
}

func TestDefaultCacheDir(t *testing.T) {
	dir := DefaultCacheDir()
	require.NotEmpty(t, dir)
	assert.Equal(t, "hub", filepath.Base(dir))
}

func TestExecOnFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")
	ran := false
	err := execOnFileLock(lockPath, func() { ran = true })
	require.NoError(t, err)
	assert.True(t, ran)

	// Re-locking the same released path must work.
	err = execOnFileLock(lockPath, func() {})
	require.NoError(t, err)
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512B", humanBytes(512))
	assert.Equal(t, "1.0KiB", humanBytes(1024))
	assert.Equal(t, "1.5MiB", humanBytes(3<<20/2))
	assert.Equal(t, "2.0GiB", humanBytes(2<<30))
}
