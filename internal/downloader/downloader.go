// Package downloader implements parallel-limited HTTP downloads with
// progress reporting, used by the hub package to fetch repository files.
package downloader

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ProgressCallback is called as the download progresses. totalBytes is -1
// when the server doesn't report a content length.
type ProgressCallback func(downloadedBytes, totalBytes int64)

// Manager downloads files over HTTP, at most maxParallel at a time.
type Manager struct {
	client      *http.Client
	authToken   string
	maxParallel int
	semaphore   chan struct{}
}

const defaultMaxParallel = 4

// New creates a Manager with default settings.
func New() *Manager {
	return &Manager{
		client:      http.DefaultClient,
		maxParallel: defaultMaxParallel,
	}
}

// MaxParallel sets the maximum number of concurrent downloads. Values < 1
// mean unlimited. It returns the Manager for chaining.
func (m *Manager) MaxParallel(n int) *Manager {
	m.maxParallel = n
	m.semaphore = nil
	return m
}

// WithAuthToken sets a bearer token attached to every request, used for
// gated or private repositories. It returns the Manager for chaining.
func (m *Manager) WithAuthToken(token string) *Manager {
	m.authToken = token
	return m
}

// WithClient sets the HTTP client used for downloads. It returns the Manager
// for chaining.
func (m *Manager) WithClient(client *http.Client) *Manager {
	m.client = client
	return m
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.maxParallel < 1 {
		return nil
	}
	if m.semaphore == nil {
		m.semaphore = make(chan struct{}, m.maxParallel)
	}
	select {
	case m.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) release() {
	if m.maxParallel >= 1 {
		<-m.semaphore
	}
}

// Download fetches url into filePath. The file is created (or truncated) at
// filePath; callers that want atomicity should download to a temporary path
// and rename. progressCallback may be nil.
func (m *Manager) Download(ctx context.Context, url, filePath string, progressCallback ProgressCallback) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to create request for %q", url)
	}
	if m.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.authToken)
	}

	klog.V(2).Infof("downloading %q to %q", url, filePath)
	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to download %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("download of %q returned status %s", url, resp.Status)
	}

	out, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to create download target %q", filePath)
	}
	defer func() { _ = out.Close() }()

	total := resp.ContentLength
	var downloaded int64
	buf := make([]byte, 256*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return errors.Wrapf(writeErr, "failed writing to %q", filePath)
			}
			downloaded += int64(n)
			if progressCallback != nil {
				progressCallback(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.Wrapf(readErr, "failed reading from %q", url)
		}
	}
	klog.V(2).Infof("downloaded %d bytes from %q", downloaded, url)
	return nil
}
