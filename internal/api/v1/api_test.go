package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/media"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]media.MediaRecord
	scanErr error
}

func newMemStore(records ...media.MediaRecord) *memStore {
	s := &memStore{records: make(map[string]media.MediaRecord)}
	for _, r := range records {
		s.records[r.OwnerID+"/"+r.ID] = r
	}
	return s
}

func (s *memStore) Open() error  { return nil }
func (s *memStore) Close() error { return nil }

func (s *memStore) Upsert(record *media.MediaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.OwnerID+"/"+record.ID] = *record
	return nil
}

func (s *memStore) Get(ownerID, id string) (media.MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[ownerID+"/"+id]
	if !ok {
		return media.MediaRecord{}, errors.NotFoundError("record not found")
	}
	return record, nil
}

func (s *memStore) GetAll() ([]media.MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	all := make([]media.MediaRecord, 0, len(s.records))
	for _, r := range s.records {
		all = append(all, r)
	}
	return all, nil
}

func (s *memStore) GetByURL(url string) (media.MediaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lowered := strings.ToLower(url)
	for _, r := range s.records {
		if strings.ToLower(r.FileURL) == lowered || strings.ToLower(r.ThumbURL) == lowered {
			return r, nil
		}
	}
	return media.MediaRecord{}, errors.NotFoundError("no record for url " + url)
}

func (s *memStore) DeleteByURL(url string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lowered := strings.ToLower(url)
	deleted := 0
	for key, r := range s.records {
		if strings.ToLower(r.FileURL) == lowered || strings.ToLower(r.ThumbURL) == lowered {
			delete(s.records, key)
			deleted++
		}
	}
	return deleted, nil
}

type memObjects struct {
	mu      sync.Mutex
	deleted []string
}

func (o *memObjects) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.NotFoundError("not implemented")
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, key)
	return nil
}

func imageRecord(owner, id string, tags ...media.Tag) media.MediaRecord {
	return media.MediaRecord{
		ID:       id,
		OwnerID:  owner,
		FileURL:  "https://media.example.com/" + owner + "/" + id + ".jpg",
		ThumbURL: "https://media.example.com/" + owner + "/" + id + "-thumb.jpg",
		FileType: media.FileTypeImage,
		Tags:     tags,
	}
}

func videoRecord(owner, id string, tags ...media.Tag) media.MediaRecord {
	return media.MediaRecord{
		ID:       id,
		OwnerID:  owner,
		FileURL:  "https://media.example.com/" + owner + "/" + id + ".mp4",
		FileType: media.FileTypeVideo,
		Tags:     tags,
	}
}

func newTestController(t *testing.T, store *memStore, objects *memObjects) *Controller {
	t.Helper()
	settings := &conf.Settings{}
	settings.ObjectStore.BaseURL = "https://media.example.com"
	return New(echo.New(), store, settings, objects, nil, nil)
}

func doRequest(c *Controller, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	c := newTestController(t, newMemStore(), &memObjects{})

	rec := doRequest(c, http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, statusForError(errors.ValidationError("bad")))
	assert.Equal(t, http.StatusNotFound, statusForError(errors.NotFoundError("missing")))
	assert.Equal(t, http.StatusServiceUnavailable, statusForError(
		errors.Newf("detector down").Category(errors.CategoryDetector).Component("api").Build()))
	assert.Equal(t, http.StatusServiceUnavailable, statusForError(
		errors.Newf("db down").Category(errors.CategoryDatabase).Component("api").Build()))
	assert.Equal(t, http.StatusServiceUnavailable, statusForError(
		errors.Newf("bucket down").Category(errors.CategoryObjectStore).Component("api").Build()))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.NewStd("boom")))
}
