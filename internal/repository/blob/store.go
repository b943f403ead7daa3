package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/imagedex/internal/domain"
)

// Store persists raw asset bytes on the local filesystem. The returned
// location is the file path; the rest of the system treats it as opaque.
type Store struct {
	dir string
}

// New creates a blob store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Store writes data to a new file named after a random prefix plus the
// sanitized display name, and returns its path.
func (s *Store) Store(ctx context.Context, data []byte, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrBlobStore, err)
	}

	path := filepath.Join(s.dir, uuid.NewString()+"-"+sanitizeName(name))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w: %w", path, domain.ErrBlobStore, err)
	}
	return path, nil
}

// Remove deletes the file at location. Missing files are not an error.
func (s *Store) Remove(location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w: %w", location, domain.ErrBlobStore, err)
	}
	return nil
}

// sanitizeName strips path separators and other characters that could
// escape the upload directory.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file.bin"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
