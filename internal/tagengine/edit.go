package tagengine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/john-samurai/birdtag-go/internal/datastore"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/media"
)

// Operation selects the tag mutation applied by an edit request.
// The wire encoding is 0 = remove, 1 = add.
type Operation int

const (
	OpRemove Operation = 0
	OpAdd    Operation = 1
)

// ParseOperation validates the wire value of an edit operation.
func ParseOperation(value int) (Operation, error) {
	switch value {
	case int(OpRemove):
		return OpRemove, nil
	case int(OpAdd):
		return OpAdd, nil
	default:
		return 0, errors.Newf("invalid operation value %d", value).
			Category(errors.CategoryValidation).
			Component("tagengine").
			Build()
	}
}

// Apply mutates the record's tag set in place and reports whether anything
// changed. Callers skip persistence when it returns false.
//
// ADD replaces the count of an existing species rather than incrementing it,
// which makes repeated ADDs idempotent. REMOVE drops only tags whose species
// and count both match exactly; a tag with the same species but a different
// count is retained.
func Apply(record *media.MediaRecord, op Operation, tags []media.Tag) bool {
	original := media.CloneTags(record.Tags)

	switch op {
	case OpAdd:
		for _, incoming := range tags {
			if idx := media.FindTag(record.Tags, incoming.Species); idx >= 0 {
				record.Tags[idx].Count = incoming.Count
			} else {
				record.Tags = append(record.Tags, media.Tag{
					Species: media.NormalizeSpecies(incoming.Species),
					Count:   incoming.Count,
				})
			}
		}
	case OpRemove:
		kept := record.Tags[:0]
		for _, existing := range record.Tags {
			exact := false
			for _, incoming := range tags {
				if media.NormalizeSpecies(existing.Species) == media.NormalizeSpecies(incoming.Species) &&
					existing.Count == incoming.Count {
					exact = true
					break
				}
			}
			if !exact {
				kept = append(kept, existing)
			}
		}
		record.Tags = kept
	}

	return !media.TagsEqual(original, record.Tags)
}

// Change describes one record updated by an edit fan-out.
type Change struct {
	Old media.MediaRecord
	New media.MediaRecord
}

// TargetFailure records one record that could not be updated.
type TargetFailure struct {
	URL string
	Err error
}

// FanOutReport summarizes an edit fan-out across matched records.
type FanOutReport struct {
	Matched  int             // records matched by the url list
	Updated  int             // records whose tag set actually changed
	Changes  []Change        // old/new pairs for changed records
	Failures []TargetFailure // per-record persistence failures
}

// Editor applies edit requests against the record store.
type Editor struct {
	store  datastore.Interface
	logger *slog.Logger
}

// NewEditor creates an Editor bound to a record store.
func NewEditor(store datastore.Interface) *Editor {
	return &Editor{
		store:  store,
		logger: logging.ForService("tagengine"),
	}
}

// FanOut applies the operation to every record whose thumbnail or file URL
// is in urls. Each record is processed independently: one record's failure
// is reported but does not abort the others. Unchanged records are not
// rewritten, avoiding redundant writes and timestamp churn.
func (e *Editor) FanOut(urls []string, op Operation, tags []media.Tag) (FanOutReport, error) {
	records, err := e.store.GetAll()
	if err != nil {
		return FanOutReport{}, err
	}

	wanted := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			wanted[strings.ToLower(u)] = true
		}
	}

	var report FanOutReport
	for i := range records {
		record := records[i]
		if !matchesURL(wanted, record.ThumbURL) && !matchesURL(wanted, record.FileURL) {
			continue
		}
		report.Matched++

		old := record
		old.Tags = media.CloneTags(record.Tags)

		if !Apply(&record, op, tags) {
			continue
		}

		record.Timestamp = time.Now().UTC()
		if err := e.store.Upsert(&record); err != nil {
			e.logger.Error("edit fan-out target failed",
				"url", record.FileURL,
				"error", err,
			)
			report.Failures = append(report.Failures, TargetFailure{URL: record.FileURL, Err: err})
			continue
		}

		report.Updated++
		report.Changes = append(report.Changes, Change{Old: old, New: record})
	}

	return report, nil
}

// matchesURL reports whether url is in the wanted set. Video records carry
// an empty thumbnail URL, so an empty url never matches.
func matchesURL(wanted map[string]bool, url string) bool {
	return url != "" && wanted[strings.ToLower(url)]
}
