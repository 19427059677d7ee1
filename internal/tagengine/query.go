// Package tagengine evaluates search queries against media records and
// applies tag mutations to them.
package tagengine

import (
	"strings"

	"github.com/john-samurai/birdtag-go/internal/media"
)

// Condition is one (species, min_count) constraint of an AND-query.
type Condition struct {
	Species  string
	MinCount int
}

// Query is an ordered list of conditions with conjunctive semantics: a
// record matches only if every condition holds.
type Query []Condition

// recordSatisfies reports whether the record holds a tag for the condition's
// species (case-insensitive) with count >= MinCount.
func recordSatisfies(record *media.MediaRecord, cond Condition) bool {
	idx := media.FindTag(record.Tags, cond.Species)
	if idx < 0 {
		return false
	}
	return record.Tags[idx].Count >= cond.MinCount
}

// MatchByTags returns the result links for records matching every condition
// of the query. Image records contribute their thumbnail URL, video records
// their file URL; records of unrecognized file type are silently excluded.
// Result order follows the store scan order of the input.
func MatchByTags(query Query, records []media.MediaRecord) []string {
	links := []string{}

	for i := range records {
		record := &records[i]

		matched := true
		for _, cond := range query {
			if !recordSatisfies(record, cond) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		switch record.FileType {
		case media.FileTypeImage:
			links = append(links, record.ThumbURL)
		case media.FileTypeVideo:
			links = append(links, record.FileURL)
		default:
			// Unsupported file types never contribute results.
		}
	}

	return links
}

// MatchByThumbURL returns the file URLs of image records whose thumbnail or
// file URL equals (case-insensitively) any of the given urls. Video records
// have no thumbnail surrogate, so they never match this lookup; that
// asymmetry is part of the contract.
func MatchByThumbURL(urls []string, records []media.MediaRecord) []string {
	wanted := make(map[string]bool, len(urls))
	for _, u := range urls {
		wanted[strings.ToLower(u)] = true
	}

	links := []string{}
	for i := range records {
		record := &records[i]
		if !wanted[strings.ToLower(record.ThumbURL)] && !wanted[strings.ToLower(record.FileURL)] {
			continue
		}
		if record.FileType == media.FileTypeImage {
			links = append(links, record.FileURL)
		}
	}
	return links
}
