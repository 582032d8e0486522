package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/errhandling"
	"github.com/orihuela-iom/fare-taxi-prediction/internal/logger"
)

// WriteFileAtomic writes path through a temp file in the same directory and
// renames it into place. On any failure the temp file is removed and path is
// left as it was. Errors are io errors carrying path.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errhandling.NewIOError(dir, fmt.Errorf("creating directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errhandling.NewIOError(path, fmt.Errorf("creating temp file: %w", err))
	}
	tempPath := tmp.Name()

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		logger.Warn("atomic write failed",
			"path", path,
			"temp_path", tempPath,
			"error", err.Error(),
		)
		var ce *errhandling.ClassifiedError
		if errors.As(err, &ce) {
			return err
		}
		return errhandling.NewIOError(path, err)
	}

	buf := bufio.NewWriterSize(tmp, 1<<20)
	if err := write(buf); err != nil {
		return fail(err)
	}
	if err := buf.Flush(); err != nil {
		return fail(fmt.Errorf("flushing: %w", err))
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(fmt.Errorf("setting permissions: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errhandling.NewIOError(path, fmt.Errorf("closing temp file: %w", err))
	}

	// Rename is atomic on POSIX.
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errhandling.NewIOError(path, fmt.Errorf("renaming temp file: %w", err))
	}

	logger.Debug("file written", "path", path)
	return nil
}
