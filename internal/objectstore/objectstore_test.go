package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
)

func newTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewFSStore(&conf.ObjectStoreSettings{Root: root})
	require.NoError(t, err)
	return store, root
}

func TestFSStoreGet(t *testing.T) {
	store, root := newTestStore(t)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "alice"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "alice", "crow.jpg"), []byte("jpeg bytes"), 0o644))

	rc, err := store.Get(context.Background(), "alice/crow.jpg")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestFSStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "alice/absent.jpg")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestFSStoreDelete(t *testing.T) {
	store, root := newTestStore(t)

	p := filepath.Join(root, "bob", "owl.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("video"), 0o644))

	require.NoError(t, store.Delete(context.Background(), "bob/owl.mp4"))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	// Second delete reports not found.
	err = store.Delete(context.Background(), "bob/owl.mp4")
	assert.True(t, errors.IsNotFound(err))
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = store.Get(context.Background(), "")
	assert.True(t, errors.IsValidation(err))
}

func TestFSStoreCancelledContext(t *testing.T) {
	store, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "alice/crow.jpg")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestURLMapping(t *testing.T) {
	settings := &conf.ObjectStoreSettings{BaseURL: "https://media.example.com/"}

	url := URLFor(settings, "alice/crow.jpg")
	assert.Equal(t, "https://media.example.com/alice/crow.jpg", url)

	key, err := KeyFromURL(settings, url)
	require.NoError(t, err)
	assert.Equal(t, "alice/crow.jpg", key)

	_, err = KeyFromURL(settings, "https://other.example.com/alice/crow.jpg")
	assert.Error(t, err)
}
