package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRef_DeterministicAndDistinct(t *testing.T) {
	a := Ref([]byte("document one"))
	b := Ref([]byte("document one"))
	c := Ref([]byte("document two"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestStores_RoundTrip(t *testing.T) {
	fsStore, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"fs":     fsStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			data := []byte("%PDF-1.7 generated cv")

			ref, err := store.Upload(t.Context(), data)
			require.NoError(t, err)
			assert.Equal(t, Ref(data), ref)

			// Re-uploading identical content yields the same reference.
			ref2, err := store.Upload(t.Context(), data)
			require.NoError(t, err)
			assert.Equal(t, ref, ref2)

			got, err := store.Download(t.Context(), ref)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			require.NoError(t, store.Delete(t.Context(), ref))

			_, err = store.Download(t.Context(), ref)
			var notFound *NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, ref, notFound.Ref)

			// Deleting again is a no-op.
			require.NoError(t, store.Delete(t.Context(), ref))
		})
	}
}

func TestMemoryStore_DownloadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ref, err := store.Upload(t.Context(), []byte("abc"))
	require.NoError(t, err)

	got, err := store.Download(t.Context(), ref)
	require.NoError(t, err)
	got[0] = 'x'

	again, err := store.Download(t.Context(), ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
