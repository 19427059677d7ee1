// Package events provides an asynchronous event bus that decouples record
// writes from notification processing, keeping ingestion and edit requests
// non-blocking.
package events

import (
	"time"

	"github.com/john-samurai/birdtag-go/internal/media"
)

// Kind labels a record transition.
type Kind string

const (
	// KindCreate is a first write of a record (no prior version).
	KindCreate Kind = "create"
	// KindUpdate is a rewrite of an existing record.
	KindUpdate Kind = "update"
)

// RecordEvent describes one media record transition. Old is nil on creation.
type RecordEvent struct {
	Kind      Kind
	Old       *media.MediaRecord
	New       media.MediaRecord
	Timestamp time.Time
}

// NewRecordEvent builds an event for a record transition.
func NewRecordEvent(kind Kind, old *media.MediaRecord, newRecord media.MediaRecord) RecordEvent {
	return RecordEvent{
		Kind:      kind,
		Old:       old,
		New:       newRecord,
		Timestamp: time.Now(),
	}
}

// Consumer represents a consumer that processes record events.
type Consumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent processes a single record event
	ProcessEvent(event RecordEvent) error
}

// BusStats contains runtime statistics for monitoring.
type BusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}
