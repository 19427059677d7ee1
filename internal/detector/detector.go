// Package detector defines the object-detection capability used to tag media
// assets. The model itself is external: bytes go in, labeled detections come
// out. A detector is constructed once per worker lifetime and passed by
// handle into aggregation, never reached for as ambient global state.
package detector

import "context"

// RawDetection is one detected instance in a single frame or image.
type RawDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // detector-reported probability in [0, 1]
}

// Interface is the opaque detection capability.
type Interface interface {
	// Detect runs the model on one image and returns the raw per-instance
	// detections. An error means the capability is unavailable; callers
	// must treat the whole asset as unprocessed.
	Detect(ctx context.Context, image []byte) ([]RawDetection, error)
}
