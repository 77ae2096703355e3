package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// DiskStore writes blobs to a local directory. The directory must exist
// up front; the store reports a missing directory or a permission
// problem distinctly so the API can tell the user what to fix.
type DiskStore struct {
	dir string
	log zerolog.Logger
	now func() time.Time
}

func NewDiskStore(dir string, log zerolog.Logger) *DiskStore {
	return &DiskStore{dir: dir, log: log, now: time.Now}
}

func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (create it first)", ErrDirNotFound, s.dir)
		}
		return "", err
	}

	path := filepath.Join(s.dir, StampName(s.now(), name))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	f, err := os.Create(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: writing to %s", ErrPermission, abs)
		}
		return "", err
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(abs)
		return "", err
	}
	s.log.Debug().Str("path", abs).Msg("blob saved")
	return abs, nil
}

func (s *DiskStore) Remove(_ context.Context, storagePath string) error {
	return os.Remove(storagePath)
}

// Prune removes stored blobs older than the retention window and
// returns how many were deleted.
func (s *DiskStore) Prune(retention time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-retention)
	cleaned := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
				s.log.Warn().Err(err).Str("file", e.Name()).Msg("prune failed")
			} else {
				cleaned++
			}
		}
	}
	if cleaned > 0 {
		s.log.Info().Int("count", cleaned).Msg("pruned old uploads")
	}
	return cleaned, nil
}
