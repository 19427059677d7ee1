// Package notify computes who should hear about newly tagged species and
// delivers the resulting notification events.
package notify

import (
	"sort"

	"github.com/john-samurai/birdtag-go/internal/media"
)

// Event is one notification handed to the external notifier. Ephemeral; the
// core makes no delivery guarantee beyond best effort.
type Event struct {
	Recipient      string   `json:"recipient"`
	MatchedSpecies []string `json:"matched_species"`
	FileURL        string   `json:"file_url"`
}

// AddedSpecies returns the species present in the new tag set but absent
// from the old one. A nil old record means creation: every species counts as
// added. Species comparison is case-normalized.
func AddedSpecies(old *media.MediaRecord, updated *media.MediaRecord) map[string]bool {
	newSet := media.SpeciesSet(updated.Tags)
	if old == nil {
		return newSet
	}

	oldSet := media.SpeciesSet(old.Tags)
	added := make(map[string]bool)
	for species := range newSet {
		if !oldSet[species] {
			added[species] = true
		}
	}
	return added
}

// Diff matches the added species of a record transition against every other
// user's historical species interests and returns one Event per interested
// user.
//
// A user's interest set is accumulated from every record they have ever had
// tagged. The record's own owner is excluded. Candidates are deduplicated and
// the result is sorted by recipient, so the outcome does not depend on store
// scan order. Pure removals (no added species) yield no events.
func Diff(records []media.MediaRecord, old *media.MediaRecord, updated *media.MediaRecord) []Event {
	added := AddedSpecies(old, updated)
	if len(added) == 0 {
		return nil
	}

	// Accumulate each user's full historical species set in one pass.
	userSpecies := make(map[string]map[string]bool)
	for i := range records {
		owner := records[i].OwnerID
		if owner == updated.OwnerID {
			continue
		}
		set, ok := userSpecies[owner]
		if !ok {
			set = make(map[string]bool)
			userSpecies[owner] = set
		}
		for species := range media.SpeciesSet(records[i].Tags) {
			set[species] = true
		}
	}

	var events []Event
	for owner, interests := range userSpecies {
		var matched []string
		for species := range added {
			if interests[species] {
				matched = append(matched, species)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		events = append(events, Event{
			Recipient:      owner,
			MatchedSpecies: matched,
			FileURL:        updated.FileURL,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Recipient < events[j].Recipient
	})
	return events
}
