package datastore

import (
	"encoding/json"
	"time"

	"github.com/john-samurai/birdtag-go/internal/media"
)

// tagCodec serializes tag sets into the tags column. Decoding normalizes
// species case, so legacy rows with mixed-case labels read back canonical.
var tagCodec = media.JSONCodec{}

// MediaRecordEntity is the GORM model for the 'media_records' table.
type MediaRecordEntity struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"primaryKey;index:idx_media_records_owner"`
	FileURL   string `gorm:"index:idx_media_records_file_url"`
	ThumbURL  string `gorm:"index:idx_media_records_thumb_url"`
	FileType  string
	Tags      []byte `gorm:"type:text"` // JSON-encoded tag list
	Timestamp time.Time
}

// TableName ensures GORM uses the expected table name.
func (MediaRecordEntity) TableName() string {
	return "media_records"
}

func entityFromRecord(record *media.MediaRecord) (*MediaRecordEntity, error) {
	tags, err := tagCodec.EncodeTags(record.Tags)
	if err != nil {
		return nil, err
	}
	return &MediaRecordEntity{
		ID:        record.ID,
		OwnerID:   record.OwnerID,
		FileURL:   record.FileURL,
		ThumbURL:  record.ThumbURL,
		FileType:  string(record.FileType),
		Tags:      tags,
		Timestamp: record.Timestamp,
	}, nil
}

func (e *MediaRecordEntity) toRecord() (media.MediaRecord, error) {
	tags, err := decodeTags(e.Tags)
	if err != nil {
		return media.MediaRecord{}, err
	}
	return media.MediaRecord{
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		FileURL:   e.FileURL,
		ThumbURL:  e.ThumbURL,
		FileType:  media.FileType(e.FileType),
		Tags:      tags,
		Timestamp: e.Timestamp,
	}, nil
}

// decodeTags reads the tags column. Rows written by this service use the
// plain JSON list form. Rows imported from legacy exports carry the typed
// attribute-map form instead, which the plain decoder would silently read as
// empty tags, so the shape is checked before picking a codec.
func decodeTags(data []byte) ([]media.Tag, error) {
	if isAttributeForm(data) {
		return media.AttributeCodec{}.DecodeTags(data)
	}
	return tagCodec.DecodeTags(data)
}

// isAttributeForm reports whether data looks like the legacy attribute-map
// encoding, recognized by the "M" wrapper on the first entry.
func isAttributeForm(data []byte) bool {
	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil || len(entries) == 0 {
		return false
	}
	_, ok := entries[0]["M"]
	return ok
}
