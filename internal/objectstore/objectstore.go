// Package objectstore abstracts the blob storage that holds uploaded media
// objects. The tagging pipeline reads object bytes through it and the delete
// flow removes objects through it.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
)

// Interface is the minimal blob store surface the pipeline needs. Keys are
// slash-separated relative paths, first segment being the owning user.
type Interface interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// FSStore serves objects from a local directory tree. Object keys map
// directly to file paths under the root.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed object store rooted at the
// configured directory.
func NewFSStore(settings *conf.ObjectStoreSettings) (*FSStore, error) {
	if settings.Root == "" {
		return nil, errors.ValidationError("object store root is not configured")
	}
	root, err := filepath.Abs(settings.Root)
	if err != nil {
		return nil, errors.New(fmt.Errorf("resolving object store root: %w", err)).
			Category(errors.CategoryConfiguration).
			Component("objectstore").
			Build()
	}
	return &FSStore{root: root}, nil
}

// Get opens the object with the given key for reading.
func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Newf("object %s not found", key).
				Category(errors.CategoryNotFound).
				Component("objectstore").
				Build()
		}
		return nil, errors.New(fmt.Errorf("opening object %s: %w", key, err)).
			Category(errors.CategoryObjectStore).
			Component("objectstore").
			Build()
	}
	return f, nil
}

// Delete removes the object with the given key. Deleting an absent object is
// an error so the caller can report it in the per-URL summary.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Newf("object %s not found", key).
				Category(errors.CategoryNotFound).
				Component("objectstore").
				Build()
		}
		return errors.New(fmt.Errorf("deleting object %s: %w", key, err)).
			Category(errors.CategoryObjectStore).
			Component("objectstore").
			Build()
	}
	return nil
}

// resolve maps a key to an absolute path under the root, rejecting keys that
// would escape it.
func (s *FSStore) resolve(key string) (string, error) {
	trimmed := strings.Trim(key, "/")
	if trimmed == "" {
		return "", errors.ValidationError("empty object key")
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", errors.ValidationError("object key escapes store root")
		}
	}
	clean := path.Clean(trimmed)
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// URLFor derives the public URL for an object key.
func URLFor(settings *conf.ObjectStoreSettings, key string) string {
	base := strings.TrimSuffix(settings.BaseURL, "/")
	return base + "/" + strings.TrimPrefix(key, "/")
}

// KeyFromURL maps a public object URL back to its key. It returns an error
// when the URL does not live under the configured base.
func KeyFromURL(settings *conf.ObjectStoreSettings, url string) (string, error) {
	base := strings.TrimSuffix(settings.BaseURL, "/") + "/"
	if !strings.HasPrefix(strings.ToLower(url), strings.ToLower(base)) {
		return "", errors.Newf("url %s is outside the object store base", url).
			Category(errors.CategoryValidation).
			Component("objectstore").
			Build()
	}
	return url[len(base):], nil
}
