package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-samurai/birdtag-go/internal/media"
)

func record(owner, id string, tags ...media.Tag) media.MediaRecord {
	return media.MediaRecord{
		ID:       id,
		OwnerID:  owner,
		FileURL:  "https://media.example.com/" + owner + "/" + id + ".jpg",
		FileType: media.FileTypeImage,
		Tags:     tags,
	}
}

func TestAddedSpecies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		old     *media.MediaRecord
		updated media.MediaRecord
		want    []string
	}{
		{
			name:    "creation counts every species as added",
			old:     nil,
			updated: record("alice", "1", media.Tag{Species: "crow", Count: 2}, media.Tag{Species: "pigeon", Count: 1}),
			want:    []string{"crow", "pigeon"},
		},
		{
			name:    "update adds only the new species",
			old:     ptr(record("alice", "1", media.Tag{Species: "crow", Count: 1})),
			updated: record("alice", "1", media.Tag{Species: "crow", Count: 3}, media.Tag{Species: "owl", Count: 1}),
			want:    []string{"owl"},
		},
		{
			name:    "pure removal adds nothing",
			old:     ptr(record("alice", "1", media.Tag{Species: "crow", Count: 1}, media.Tag{Species: "owl", Count: 1})),
			updated: record("alice", "1", media.Tag{Species: "crow", Count: 1}),
			want:    nil,
		},
		{
			name:    "count change alone adds nothing",
			old:     ptr(record("alice", "1", media.Tag{Species: "crow", Count: 1})),
			updated: record("alice", "1", media.Tag{Species: "crow", Count: 5}),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			added := AddedSpecies(tt.old, &tt.updated)
			assert.Len(t, added, len(tt.want))
			for _, species := range tt.want {
				assert.True(t, added[species], "expected %q in added set", species)
			}
		})
	}
}

func TestDiffCreationNotifiesInterestedUsers(t *testing.T) {
	t.Parallel()

	records := []media.MediaRecord{
		record("bob", "10", media.Tag{Species: "crow", Count: 1}),
		record("carol", "20", media.Tag{Species: "owl", Count: 2}),
		record("dave", "30", media.Tag{Species: "sparrow", Count: 1}),
	}
	updated := record("alice", "1", media.Tag{Species: "crow", Count: 2}, media.Tag{Species: "owl", Count: 1})

	events := Diff(records, nil, &updated)
	require.Len(t, events, 2)

	// Sorted by recipient.
	assert.Equal(t, "bob", events[0].Recipient)
	assert.Equal(t, []string{"crow"}, events[0].MatchedSpecies)
	assert.Equal(t, "carol", events[1].Recipient)
	assert.Equal(t, []string{"owl"}, events[1].MatchedSpecies)
	assert.Equal(t, updated.FileURL, events[0].FileURL)
}

func TestDiffExcludesOwner(t *testing.T) {
	t.Parallel()

	records := []media.MediaRecord{
		// The uploader already has crows in their history.
		record("alice", "5", media.Tag{Species: "crow", Count: 1}),
		record("bob", "10", media.Tag{Species: "crow", Count: 1}),
	}
	updated := record("alice", "1", media.Tag{Species: "crow", Count: 1})

	events := Diff(records, nil, &updated)
	require.Len(t, events, 1)
	assert.Equal(t, "bob", events[0].Recipient)
}

func TestDiffPureRemovalYieldsNoEvents(t *testing.T) {
	t.Parallel()

	records := []media.MediaRecord{
		record("bob", "10", media.Tag{Species: "crow", Count: 1}),
	}
	old := record("alice", "1", media.Tag{Species: "crow", Count: 2}, media.Tag{Species: "owl", Count: 1})
	updated := record("alice", "1", media.Tag{Species: "crow", Count: 2})

	assert.Nil(t, Diff(records, &old, &updated))
}

func TestDiffDeduplicatesAcrossRecords(t *testing.T) {
	t.Parallel()

	// Bob has crows on two separate records; he still gets one event.
	records := []media.MediaRecord{
		record("bob", "10", media.Tag{Species: "crow", Count: 1}),
		record("bob", "11", media.Tag{Species: "crow", Count: 3}),
	}
	updated := record("alice", "1", media.Tag{Species: "crow", Count: 1})

	events := Diff(records, nil, &updated)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"crow"}, events[0].MatchedSpecies)
}

func TestDiffOrderIndependentOfScan(t *testing.T) {
	t.Parallel()

	forward := []media.MediaRecord{
		record("zed", "1", media.Tag{Species: "crow", Count: 1}),
		record("amy", "2", media.Tag{Species: "crow", Count: 1}),
	}
	reversed := []media.MediaRecord{forward[1], forward[0]}
	updated := record("alice", "9", media.Tag{Species: "crow", Count: 1})

	a := Diff(forward, nil, &updated)
	b := Diff(reversed, nil, &updated)
	assert.Equal(t, a, b)
	require.Len(t, a, 2)
	assert.Equal(t, "amy", a[0].Recipient)
}

func ptr(r media.MediaRecord) *media.MediaRecord { return &r }
