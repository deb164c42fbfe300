package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps blobs on the local filesystem, sharded by the first two hex
// characters of the content address.
type FSStore struct {
	root string
}

// NewFSStore creates the store root if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("blob store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob store root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(ref string) string {
	if len(ref) < 2 {
		return filepath.Join(s.root, ref)
	}
	return filepath.Join(s.root, ref[:2], ref)
}

// Upload writes data under its content address. An existing blob with the
// same address is left untouched.
func (s *FSStore) Upload(_ context.Context, data []byte) (string, error) {
	ref := Ref(data)
	path := s.path(ref)

	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	// Write to a temp file and rename so readers never see partial content.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit blob: %w", err)
	}

	return ref, nil
}

// Download returns the stored bytes for a reference.
func (s *FSStore) Download(_ context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(s.path(ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Ref: ref}
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes a reference; absence is not an error.
func (s *FSStore) Delete(_ context.Context, ref string) error {
	err := os.Remove(s.path(ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob %s: %w", ref, err)
	}
	return nil
}
