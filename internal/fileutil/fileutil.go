package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge reports that a stream exceeded the caller's size limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// WriteAtomic streams r into dir/name through a sibling temp file and renames
// it into place, replacing any existing file. A maxBytes above zero bounds the
// stream; exceeding it leaves no file behind and returns ErrTooLarge.
func WriteAtomic(dir, name string, r io.Reader, maxBytes int64) (int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if err != nil {
		return written, err
	}
	if maxBytes > 0 && written > maxBytes {
		return written, fmt.Errorf("%w: %d bytes", ErrTooLarge, maxBytes)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return written, err
	}
	if err := tmp.Sync(); err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return written, err
	}
	return written, nil
}
