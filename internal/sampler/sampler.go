// Package sampler selects which video frames are run through detection.
// Sampling bounds detector cost while keeping a deterministic, evenly spaced
// subsequence of frames.
package sampler

// DefaultPerSecond is the target number of sampled frames per second of
// source video.
const DefaultPerSecond = 2

// Sampler computes deterministic frame index sets for a target density.
type Sampler struct {
	perSecond int
}

// New creates a Sampler with the given per-second sampling density.
// Densities below 1 fall back to the default.
func New(perSecond int) *Sampler {
	if perSecond < 1 {
		perSecond = DefaultPerSecond
	}
	return &Sampler{perSecond: perSecond}
}

// Interval returns the frame distance between samples for the given source
// frame rate. An fps of 0 or unknown samples every frame rather than
// dividing by zero.
func (s *Sampler) Interval(fps int) int {
	if fps <= 0 {
		return 1
	}
	interval := fps / s.perSecond
	if interval < 1 {
		return 1
	}
	return interval
}

// FrameIndices returns the ascending indices of frames to run detection on.
// Any non-empty video yields at least one sampled frame, frame 0 included.
func (s *Sampler) FrameIndices(fps, totalFrames int) []int {
	if totalFrames < 1 {
		return nil
	}
	interval := s.Interval(fps)
	indices := make([]int, 0, totalFrames/interval+1)
	for i := 0; i < totalFrames; i += interval {
		indices = append(indices, i)
	}
	return indices
}
