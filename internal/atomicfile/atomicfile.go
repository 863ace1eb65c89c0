// Package atomicfile persists byte content durably: a write either fully
// replaces the previous file content or leaves it untouched. A concurrent
// reader of the same path never observes a partial write.
package atomicfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// WriteFile writes data to path atomically: the content lands in a
// temporary file in the same directory, is synced to disk, and is then
// renamed over the target. If the rename fails because the temporary
// file and target live on different devices, the write falls back to a
// direct overwrite. All other I/O errors propagate to the caller.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// On any failure past this point the temp file is garbage; remove it.
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(fmt.Errorf("chmod temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return cleanup(fmt.Errorf("close temp file: %w", err))
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		if isCrossDevice(err) {
			// Rename cannot cross filesystems; lose atomicity rather
			// than fail the write.
			return os.WriteFile(path, data, perm)
		}
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// isCrossDevice reports whether err is the EXDEV rename failure.
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}
