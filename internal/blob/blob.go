package blob

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

var ErrNotFound = errors.New("blob not found")

// Store is the image blob collaborator of the attendance ledger. Refs are
// opaque handles; the ledger persists them, never raw paths.
type Store interface {
	Save(data []byte) (string, error)
	Open(ref string) (io.ReadCloser, error)
	Remove(ref string) error
}

// DirStore keeps JPEG blobs as ULID-named files in a single directory,
// the same layout the upload folder always had.
type DirStore struct{ dir string }

func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty blob")
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0))
	ref := id.String() + ".jpg"

	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

func (s *DirStore) Open(ref string) (io.ReadCloser, error) {
	if !validRef(ref) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *DirStore) Remove(ref string) error {
	if !validRef(ref) {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// validRef rejects anything that is not a bare ULID filename, so a ref can
// never escape the directory.
func validRef(ref string) bool {
	if ref == "" || ref != filepath.Base(ref) {
		return false
	}
	if strings.ContainsAny(ref, `/\`) {
		return false
	}
	name := strings.TrimSuffix(ref, ".jpg")
	if name == ref {
		return false
	}
	_, err := ulid.ParseStrict(name)
	return err == nil
}
