// Package hub downloads and caches files from HuggingFace Hub model
// repositories. Files are cached under the user cache directory and
// downloads are coordinated across processes with file locks.
package hub

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/terminator-ger/skorch/internal/downloader"
	"github.com/terminator-ger/skorch/internal/files"
)

const (
	// DefaultDirCreationPerm is used when creating cache directories.
	DefaultDirCreationPerm = os.FileMode(0o755)

	// HuggingFaceURLPrefix is the base URL files are resolved against.
	HuggingFaceURLPrefix = "https://huggingface.co"
)

// Repo references a HuggingFace model repository at a given revision.
type Repo struct {
	// ID is the repository id, e.g. "google-bert/bert-base-uncased".
	ID string

	// MaxParallelDownload limits concurrent file downloads. Values < 1 mean
	// unlimited.
	MaxParallelDownload int

	revision  string
	cacheDir  string
	authToken string

	client           *http.Client
	downloadManager  *downloader.Manager
	progressCallback downloader.ProgressCallback
}

// New creates a reference to the given repository id, at the "main" revision,
// cached in the default cache directory. Use the With* methods to change the
// defaults.
func New(id string) *Repo {
	return &Repo{
		ID:                  id,
		MaxParallelDownload: 4,
		revision:            "main",
		cacheDir:            DefaultCacheDir(),
		client:              http.DefaultClient,
	}
}

// DefaultCacheDir returns the default cache directory for downloaded files:
// the skorch/hub subdirectory of the user cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(base, "skorch", "hub")
}

// WithRevision sets the repository revision (branch, tag or commit hash).
// It returns the Repo for chaining.
func (r *Repo) WithRevision(revision string) *Repo {
	r.revision = revision
	return r
}

// WithCacheDir sets the directory where downloaded files are cached. It
// returns the Repo for chaining.
func (r *Repo) WithCacheDir(cacheDir string) *Repo {
	r.cacheDir = cacheDir
	return r
}

// WithAuth sets the bearer token used for gated or private repositories. It
// returns the Repo for chaining.
func (r *Repo) WithAuth(token string) *Repo {
	r.authToken = token
	r.downloadManager = nil
	return r
}

// WithProgressCallback sets a callback invoked as downloads progress. It
// returns the Repo for chaining.
func (r *Repo) WithProgressCallback(callback downloader.ProgressCallback) *Repo {
	r.progressCallback = callback
	return r
}

// FileURL returns the URL the given repository file resolves to.
func (r *Repo) FileURL(fileName string) string {
	return fmt.Sprintf("%s/%s/resolve/%s/%s", HuggingFaceURLPrefix, r.ID, r.revision, fileName)
}

// flatID converts the repo id to a single path component, the way the
// HuggingFace cache lays out repositories.
func (r *Repo) flatID() string {
	return "models--" + strings.ReplaceAll(r.ID, "/", "--")
}

// FileCachePath returns the local path the given repository file is cached
// at. The file may not exist yet.
func (r *Repo) FileCachePath(fileName string) string {
	return filepath.Join(r.cacheDir, r.flatID(), "snapshots", r.revision, fileName)
}

// IsCached returns whether the given file has already been downloaded.
func (r *Repo) IsCached(fileName string) bool {
	return files.Exists(r.FileCachePath(fileName))
}

// HasFile returns whether the repository provides the given file, checking
// the local cache first and falling back to a HEAD request.
func (r *Repo) HasFile(fileName string) bool {
	if r.IsCached(fileName) {
		return true
	}
	req, err := http.NewRequest(http.MethodHead, r.FileURL(fileName), nil)
	if err != nil {
		return false
	}
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
