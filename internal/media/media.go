// Package media provides the domain model for tagged media assets.
// MediaRecord is the single source of truth for asset data used throughout
// the application. External serialization (API, store, legacy exports) is
// handled by boundary-specific codecs.
package media

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/john-samurai/birdtag-go/internal/errors"
)

// FileType classifies a media asset by its content kind.
type FileType string

const (
	FileTypeImage   FileType = "image"
	FileTypeVideo   FileType = "video"
	FileTypeUnknown FileType = "unknown"
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "bmp": true, "tiff": true, "gif": true,
}

var videoExtensions = map[string]bool{
	"mp4": true, "avi": true, "mov": true, "mkv": true, "webm": true,
}

// FileTypeForKey determines the file type from the object key extension.
func FileTypeForKey(key string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(key), "."))
	switch {
	case imageExtensions[ext]:
		return FileTypeImage
	case videoExtensions[ext]:
		return FileTypeVideo
	default:
		return FileTypeUnknown
	}
}

// ThumbnailKey derives the thumbnail object key from an original key.
func ThumbnailKey(key string) string {
	if ext := path.Ext(key); ext != "" {
		return strings.TrimSuffix(key, ext) + "-thumb.jpg"
	}
	return key + "-thumb.jpg"
}

// IsThumbnailKey reports whether the key refers to a generated thumbnail.
// Thumbnail uploads must never be ingested as assets of their own.
func IsThumbnailKey(key string) bool {
	return strings.Contains(key, "-thumb.")
}

// NormalizeSpecies canonicalizes a species label for storage and matching.
func NormalizeSpecies(species string) string {
	return strings.ToLower(strings.TrimSpace(species))
}

// Tag is a (species, count) pair recorded on a MediaRecord.
// Species values are case-normalized and unique within one record.
type Tag struct {
	Species string `json:"species"`
	Count   int    `json:"count"`
}

// ParseTagLiteral parses the "species,count" wire literal used by the edit
// surface into a Tag.
func ParseTagLiteral(literal string) (Tag, error) {
	parts := strings.Split(literal, ",")
	if len(parts) != 2 {
		return Tag{}, errors.Newf("invalid tag format: %q", literal).
			Category(errors.CategoryValidation).
			Component("media").
			Build()
	}

	species := NormalizeSpecies(parts[0])
	if species == "" {
		return Tag{}, errors.Newf("invalid tag format: %q: empty species", literal).
			Category(errors.CategoryValidation).
			Component("media").
			Build()
	}

	count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || count < 0 {
		return Tag{}, errors.Newf("invalid tag format: %q: bad count", literal).
			Category(errors.CategoryValidation).
			Component("media").
			Build()
	}

	return Tag{Species: species, Count: count}, nil
}

// MediaRecord is the persisted unit describing one ingested asset.
// It is created once by ingestion and thereafter mutated only through
// whole-tag-set replacement, never partial field writes.
type MediaRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	FileURL   string    `json:"file_url"`
	ThumbURL  string    `json:"thumb_url,omitempty"` // present iff FileType == image
	FileType  FileType  `json:"file_type"`
	Tags      []Tag     `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

// FindTag returns the index of the tag with the given species, or -1.
// Lookup is case-insensitive via species normalization.
func FindTag(tags []Tag, species string) int {
	normalized := NormalizeSpecies(species)
	for i := range tags {
		if NormalizeSpecies(tags[i].Species) == normalized {
			return i
		}
	}
	return -1
}

// SpeciesSet returns the set of normalized species present in the tag list.
func SpeciesSet(tags []Tag) map[string]bool {
	set := make(map[string]bool, len(tags))
	for i := range tags {
		set[NormalizeSpecies(tags[i].Species)] = true
	}
	return set
}

// TagsEqual reports whether two tag lists are value-identical, tag order
// included. Edit operations preserve order, so positional comparison is the
// correct change check for skip-if-unchanged persistence.
func TagsEqual(a, b []Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CloneTags returns a copy of the tag list that is safe to mutate.
func CloneTags(tags []Tag) []Tag {
	if tags == nil {
		return nil
	}
	out := make([]Tag, len(tags))
	copy(out, tags)
	return out
}
