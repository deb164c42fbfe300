// Package blob stores generated document bytes under content-addressed
// references so identical output is never written twice.
package blob

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Store persists opaque document bytes keyed by content address.
type Store interface {
	// Upload writes data and returns its content address.
	Upload(ctx context.Context, data []byte) (string, error)
	// Download returns the bytes for a reference.
	Download(ctx context.Context, ref string) ([]byte, error)
	// Delete removes a reference. Deleting an absent reference is not an error.
	Delete(ctx context.Context, ref string) error
}

// NotFoundError reports a reference with no stored content.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("blob not found: %s", e.Ref)
}

// Ref computes the content address for a payload: the hex BLAKE2b-256 digest.
func Ref(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
