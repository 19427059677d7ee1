package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterval(t *testing.T) {
	t.Parallel()

	s := New(2)

	tests := []struct {
		name string
		fps  int
		want int
	}{
		{"30fps samples every 15th frame", 30, 15},
		{"25fps rounds down", 25, 12},
		{"unknown fps samples every frame", 0, 1},
		{"negative fps samples every frame", -1, 1},
		{"low fps never drops below 1", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Interval(tt.fps))
		})
	}
}

func TestFrameIndices(t *testing.T) {
	t.Parallel()

	s := New(2)

	assert.Equal(t, []int{0, 15, 30, 45}, s.FrameIndices(30, 60))
	assert.Equal(t, []int{0}, s.FrameIndices(30, 1), "non-empty video yields at least one frame")
	assert.Equal(t, []int{0, 1, 2}, s.FrameIndices(0, 3), "unknown fps samples every frame")
	assert.Empty(t, s.FrameIndices(30, 0))
}

func TestFrameIndicesDeterministic(t *testing.T) {
	t.Parallel()

	s := New(2)
	first := s.FrameIndices(24, 240)
	second := s.FrameIndices(24, 240)
	assert.Equal(t, first, second)
}

func TestNewClampsDensity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 15, New(0).Interval(30), "invalid density falls back to default")
}
