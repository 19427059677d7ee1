// Package aggregator reduces raw per-frame detections into the canonical tag
// set persisted on a media record.
//
// Counting semantics: for a single image, a species count is the number of
// detections above the confidence threshold. For video the per-frame counts
// are combined with a max, not a sum. The max estimates peak simultaneous
// occurrence ("5 crows visible at once") where a sum would double-count
// individuals re-appearing across a moving scene.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/john-samurai/birdtag-go/internal/detector"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/media"
	"github.com/john-samurai/birdtag-go/internal/sampler"
)

// DefaultThreshold is the minimum detection confidence for a detection to
// contribute to a tag.
const DefaultThreshold = 0.5

// Result is one aggregated species with its peak count and confidence.
// Confidence is aggregator-internal diagnostics and is not persisted on the
// tag.
type Result struct {
	Species    string
	Count      int
	Confidence float64
}

// FrameSource supplies decoded frames of one video asset. Frame decoding
// itself is an external collaborator concern; the aggregator only asks for
// the frames the sampler selected.
type FrameSource interface {
	FPS() int
	FrameCount() int
	Frame(index int) ([]byte, error)
}

// Aggregator turns raw detections into canonical tag sets.
type Aggregator struct {
	detector  detector.Interface
	sampler   *sampler.Sampler
	threshold float64
	logger    *slog.Logger
}

// New creates an Aggregator around a detector handle. Thresholds outside
// (0, 1] fall back to the default.
func New(det detector.Interface, smp *sampler.Sampler, threshold float64) *Aggregator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if smp == nil {
		smp = sampler.New(sampler.DefaultPerSecond)
	}
	return &Aggregator{
		detector:  det,
		sampler:   smp,
		threshold: threshold,
		logger:    logging.ForService("aggregator"),
	}
}

// AggregateImage runs detection on a single image and reduces the raw
// detections to per-species counts. No detections above threshold yields an
// empty, valid result.
func (a *Aggregator) AggregateImage(ctx context.Context, image []byte) ([]Result, error) {
	detections, err := a.detector.Detect(ctx, image)
	if err != nil {
		return nil, errors.New(fmt.Errorf("image aggregation: %w", err)).
			Category(errors.CategoryMediaProcessing).
			Component("aggregator").
			Build()
	}
	return a.reduceFrame(detections), nil
}

// AggregateVideo samples frames from the source and combines per-frame
// species counts with a max policy: the final count for a species is the
// highest count seen in any single sampled frame, and its confidence is the
// highest seen across all frames. Any detector failure aborts the whole
// aggregation with no partial result.
func (a *Aggregator) AggregateVideo(ctx context.Context, src FrameSource) ([]Result, error) {
	indices := a.sampler.FrameIndices(src.FPS(), src.FrameCount())

	// Keyed by species; order preserves first appearance across frames.
	combined := make(map[string]*Result)
	var order []string

	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(fmt.Errorf("video aggregation cancelled: %w", err)).
				Category(errors.CategoryMediaProcessing).
				Component("aggregator").
				Build()
		}

		frame, err := src.Frame(idx)
		if err != nil {
			return nil, errors.New(fmt.Errorf("reading frame %d: %w", idx, err)).
				Category(errors.CategoryMediaProcessing).
				Component("aggregator").
				Build()
		}

		detections, err := a.detector.Detect(ctx, frame)
		if err != nil {
			return nil, errors.New(fmt.Errorf("video aggregation at frame %d: %w", idx, err)).
				Category(errors.CategoryMediaProcessing).
				Component("aggregator").
				Build()
		}

		for _, frameResult := range a.reduceFrame(detections) {
			existing, ok := combined[frameResult.Species]
			if !ok {
				r := frameResult
				combined[frameResult.Species] = &r
				order = append(order, frameResult.Species)
				continue
			}
			existing.Count = max(existing.Count, frameResult.Count)
			existing.Confidence = max(existing.Confidence, frameResult.Confidence)
		}
	}

	results := make([]Result, 0, len(order))
	for _, species := range order {
		results = append(results, *combined[species])
	}

	a.logger.Debug("video aggregation completed",
		"sampled_frames", len(indices),
		"species", len(results),
	)

	return results, nil
}

// reduceFrame filters one frame's detections by threshold and groups them
// into per-species counts with max confidence.
func (a *Aggregator) reduceFrame(detections []detector.RawDetection) []Result {
	grouped := make(map[string]*Result)
	var order []string

	for i := range detections {
		if detections[i].Confidence <= a.threshold {
			continue
		}
		species := media.NormalizeSpecies(detections[i].Label)
		if species == "" {
			continue
		}
		if existing, ok := grouped[species]; ok {
			existing.Count++
			existing.Confidence = max(existing.Confidence, detections[i].Confidence)
			continue
		}
		grouped[species] = &Result{
			Species:    species,
			Count:      1,
			Confidence: detections[i].Confidence,
		}
		order = append(order, species)
	}

	results := make([]Result, 0, len(order))
	for _, species := range order {
		results = append(results, *grouped[species])
	}
	return results
}

// Tags converts aggregation results into the persisted tag form, dropping
// the internal confidence.
func Tags(results []Result) []media.Tag {
	tags := make([]media.Tag, 0, len(results))
	for i := range results {
		tags = append(tags, media.Tag{Species: results[i].Species, Count: results[i].Count})
	}
	return tags
}
