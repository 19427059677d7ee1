package tagengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/john-samurai/birdtag-go/internal/media"
)

func sampleRecords() []media.MediaRecord {
	return []media.MediaRecord{
		{
			ID: "crows_1", OwnerID: "user1", FileType: media.FileTypeImage,
			FileURL:  "https://host/media/user1/crows_1.jpg",
			ThumbURL: "https://host/media/user1/crows_1-thumb.jpg",
			Tags:     []media.Tag{{Species: "crow", Count: 3}},
		},
		{
			ID: "mixed_1", OwnerID: "user2", FileType: media.FileTypeImage,
			FileURL:  "https://host/media/user2/mixed_1.jpg",
			ThumbURL: "https://host/media/user2/mixed_1-thumb.jpg",
			Tags:     []media.Tag{{Species: "crow", Count: 5}, {Species: "pigeon", Count: 2}},
		},
		{
			ID: "flock_1", OwnerID: "user3", FileType: media.FileTypeVideo,
			FileURL: "https://host/media/user3/flock_1.mp4",
			Tags:    []media.Tag{{Species: "crow", Count: 4}},
		},
		{
			ID: "odd_1", OwnerID: "user4", FileType: media.FileTypeUnknown,
			FileURL: "https://host/media/user4/odd_1.bin",
			Tags:    []media.Tag{{Species: "crow", Count: 9}},
		},
	}
}

func TestMatchByTags(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "single condition",
			query: Query{{Species: "crow", MinCount: 3}},
			want: []string{
				"https://host/media/user1/crows_1-thumb.jpg",
				"https://host/media/user2/mixed_1-thumb.jpg",
				"https://host/media/user3/flock_1.mp4",
			},
		},
		{
			name:  "count threshold excludes low counts",
			query: Query{{Species: "crow", MinCount: 5}},
			want:  []string{"https://host/media/user2/mixed_1-thumb.jpg"},
		},
		{
			name:  "species lookup is case-insensitive",
			query: Query{{Species: "CROW", MinCount: 3}},
			want: []string{
				"https://host/media/user1/crows_1-thumb.jpg",
				"https://host/media/user2/mixed_1-thumb.jpg",
				"https://host/media/user3/flock_1.mp4",
			},
		},
		{
			name: "adding a condition narrows the result",
			query: Query{
				{Species: "crow", MinCount: 3},
				{Species: "pigeon", MinCount: 2},
			},
			want: []string{"https://host/media/user2/mixed_1-thumb.jpg"},
		},
		{
			name:  "no match",
			query: Query{{Species: "kingfisher", MinCount: 1}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchByTags(tt.query, records))
		})
	}
}

func TestMatchByTagsNarrowsMonotonically(t *testing.T) {
	t.Parallel()

	records := sampleRecords()
	broad := MatchByTags(Query{{Species: "crow", MinCount: 3}}, records)
	narrow := MatchByTags(Query{{Species: "crow", MinCount: 3}, {Species: "pigeon", MinCount: 2}}, records)

	assert.Less(t, len(narrow), len(broad))
	for _, link := range narrow {
		assert.Contains(t, broad, link, "narrowed results must be a subset")
	}
}

func TestMatchByTagsExcludesUnknownFileType(t *testing.T) {
	t.Parallel()

	links := MatchByTags(Query{{Species: "crow", MinCount: 1}}, sampleRecords())
	assert.NotContains(t, links, "https://host/media/user4/odd_1.bin")
}

func TestMatchByThumbURL(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	// Image match contributes the file URL.
	links := MatchByThumbURL([]string{"https://host/media/USER1/crows_1-thumb.jpg"}, records)
	assert.Equal(t, []string{"https://host/media/user1/crows_1.jpg"}, links)

	// Video records never match the thumbnail lookup, even by file URL.
	links = MatchByThumbURL([]string{"https://host/media/user3/flock_1.mp4"}, records)
	assert.Empty(t, links)

	// Unknown URL.
	links = MatchByThumbURL([]string{"https://host/media/none.jpg"}, records)
	assert.Empty(t, links)
}
