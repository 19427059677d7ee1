// Package ingest turns object storage notifications into tagged media
// records. It is the write path of the system: every record originates here.
package ingest

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antonholmquist/jason"

	"github.com/john-samurai/birdtag-go/internal/errors"
)

// ObjectEvent describes one stored object that needs processing.
type ObjectEvent struct {
	Container string // bucket or root container name
	Key       string // slash-separated object key, url-decoded
	Kind      string // notification event name, e.g. ObjectCreated:Put
}

// ParseObjectEvent decodes a storage notification envelope into its object
// events. The envelope follows the S3 notification shape:
//
//	{"Records":[{"eventName":...,"s3":{"bucket":{"name":...},"object":{"key":...}}}]}
//
// Object keys arrive query-encoded and are decoded here.
func ParseObjectEvent(payload []byte) ([]ObjectEvent, error) {
	root, err := jason.NewObjectFromBytes(payload)
	if err != nil {
		return nil, errors.New(fmt.Errorf("parsing notification envelope: %w", err)).
			Category(errors.CategoryValidation).
			Component("ingest").
			Build()
	}

	records, err := root.GetObjectArray("Records")
	if err != nil {
		return nil, errors.Newf("notification envelope has no Records array").
			Category(errors.CategoryValidation).
			Component("ingest").
			Build()
	}

	events := make([]ObjectEvent, 0, len(records))
	for i, record := range records {
		bucket, err := record.GetString("s3", "bucket", "name")
		if err != nil {
			return nil, errors.Newf("record %d missing bucket name", i).
				Category(errors.CategoryValidation).
				Component("ingest").
				Build()
		}
		rawKey, err := record.GetString("s3", "object", "key")
		if err != nil {
			return nil, errors.Newf("record %d missing object key", i).
				Category(errors.CategoryValidation).
				Component("ingest").
				Build()
		}
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errors.New(fmt.Errorf("record %d has undecodable key %q: %w", i, rawKey, err)).
				Category(errors.CategoryValidation).
				Component("ingest").
				Build()
		}

		kind, _ := record.GetString("eventName")

		events = append(events, ObjectEvent{
			Container: bucket,
			Key:       strings.TrimPrefix(key, "/"),
			Kind:      kind,
		})
	}
	return events, nil
}

// OwnerFromKey extracts the owning user from an object key, the first path
// segment. An empty owner means the key is malformed.
func OwnerFromKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if idx := strings.IndexByte(key, '/'); idx > 0 {
		return key[:idx]
	}
	return ""
}

// RecordIDFromKey derives a record identifier from the key basename, with
// the extension stripped. Returns an empty string when no usable basename
// exists; the caller falls back to a generated id.
func RecordIDFromKey(key string) string {
	base := key
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}
