package hub

import (
	"context"
	"math/rand"
	"os"
	"path"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/terminator-ger/skorch/internal/downloader"
	"github.com/terminator-ger/skorch/internal/files"
)

// Generic download utilities.

// DownloadFile fetches the given repository file into the cache if it isn't
// there yet and returns its local path.
func (r *Repo) DownloadFile(fileName string) (string, error) {
	return r.DownloadFileCtx(context.Background(), fileName)
}

// DownloadFileCtx is DownloadFile with an explicit context.
func (r *Repo) DownloadFileCtx(ctx context.Context, fileName string) (string, error) {
	filePath := r.FileCachePath(fileName)
	err := r.lockedDownload(ctx, r.FileURL(fileName), filePath, false, r.progressCallback)
	if err != nil {
		return "", err
	}
	return filePath, nil
}

// getDownloadManager returns the current downloader.Manager, or creates a new
// one for this Repo.
func (r *Repo) getDownloadManager() *downloader.Manager {
	if r.downloadManager == nil {
		r.downloadManager = downloader.New().MaxParallel(r.MaxParallelDownload).WithAuthToken(r.authToken)
	}
	return r.downloadManager
}

// lockedDownload downloads url to the given filePath.
//
// If filePath exists and forceDownload is false, it is assumed to already
// have been correctly downloaded, and it returns immediately.
//
// It downloads to a uniquely named temporary file next to filePath and then
// atomically moves it to filePath.
//
// It uses a temporary filePath+".lock" to coordinate multiple
// processes/programs trying to download the same file at the same time.
func (r *Repo) lockedDownload(ctx context.Context, url, filePath string, forceDownload bool, progressCallback downloader.ProgressCallback) error {
	if files.Exists(filePath) {
		if !forceDownload {
			return nil
		}
		err := os.Remove(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to remove %q while force-downloading %q", filePath, url)
		}
	}

	// Checks whether context has already been cancelled, and exit immediately.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Create directory for file.
	if err := os.MkdirAll(path.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	// Lock file to avoid parallel downloads.
	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		if files.Exists(filePath) {
			// Some concurrent other process (or goroutine) already downloaded the file.
			return
		}

		// Unique temporary name so interrupted downloads never collide.
		tmpPath := filePath + "." + uuid.NewString() + ".downloading"
		defer func() {
			if files.Exists(tmpPath) {
				if err := os.Remove(tmpPath); err != nil {
					klog.Warningf("failed removing temporary file %q: %v", tmpPath, err)
				}
			}
		}()

		downloadManager := r.getDownloadManager()
		mainErr = downloadManager.Download(ctx, url, tmpPath, progressCallback)
		if mainErr != nil {
			mainErr = errors.WithMessagef(mainErr, "while downloading %q to %q", url, tmpPath)
			return
		}

		// Download succeeded, move to our target location.
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}

		// File now exists, so we no longer need the lock file.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// execOnFileLock opens the lockPath file (or creates it if it doesn't yet
// exist), locks it, and executes the function. If lockPath is already locked,
// it polls with a 1 to 2 second period (randomly), until it acquires the
// lock.
//
// The lockPath is not removed. It's safe to remove it from the given fn, if
// one knows that no new calls to execOnFileLock with the same lockPath are
// going to be made.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)

	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}

		// Wait from 1 to 2 seconds.
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}

	// Clean up in a deferred function, so it happens even if fn() panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			// If we already have an error, don't overwrite it.
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Warningf("error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	// We got the lock, run the function.
	fn()

	return
}
