package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scriptmirror/scriptmirror/internal/fetch"
)

// stagingMarker is embedded in staging file names so cleanup can recognize
// leftovers from an interrupted run.
const stagingMarker = ".staging-"

// newFilePerm is applied to files that did not exist before promotion.
const newFilePerm os.FileMode = 0644

// staged is fetched content waiting to be promoted.
type staged struct {
	path   string
	digest string
}

// stage fetches d into a hidden temp file in the same directory as final,
// so that promotion is a same-filesystem rename. The file gets perm before
// any byte is written. On error nothing is left behind.
func stage(ctx context.Context, f fetch.Fetcher, d fetch.Descriptor, final string, perm os.FileMode) (*staged, error) {
	dir := filepath.Dir(final)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(final)+stagingMarker+"*")
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return nil, fmt.Errorf("setting staging permissions: %w", err)
	}

	h := sha256.New()
	if err := f.Fetch(ctx, d, io.MultiWriter(tmp, h)); err != nil {
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("syncing staging file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing staging file: %w", err)
	}

	committed = true
	return &staged{path: tmpName, digest: hex.EncodeToString(h.Sum(nil))}, nil
}

// discard removes the staging file.
func (s *staged) discard() {
	_ = os.Remove(s.path)
}

// promote atomically replaces final with the staged bytes. On error final
// is untouched and the staging file is removed.
func (s *staged) promote(final string) error {
	if err := os.Rename(s.path, final); err != nil {
		s.discard()
		return fmt.Errorf("promoting %s: %w", final, err)
	}
	return nil
}

// isStagingLeftover reports whether name looks like a staging file.
func isStagingLeftover(name string) bool {
	return strings.HasPrefix(name, ".") && strings.Contains(name, stagingMarker)
}
