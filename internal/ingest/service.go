package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/john-samurai/birdtag-go/internal/aggregator"
	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/datastore"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/events"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/media"
	"github.com/john-samurai/birdtag-go/internal/objectstore"
	"github.com/john-samurai/birdtag-go/internal/observability"
)

// FrameOpener decodes a stored video blob into a frame source. Frame
// extraction itself is an external collaborator; this is its seam.
type FrameOpener interface {
	Open(ctx context.Context, data []byte) (aggregator.FrameSource, error)
}

// Service processes object events end to end: read the blob, detect and
// aggregate, persist the record, publish the transition.
type Service struct {
	store    datastore.Interface
	objects  objectstore.Interface
	agg      *aggregator.Aggregator
	frames   FrameOpener
	bus      *events.Bus
	settings *conf.ObjectStoreSettings
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService wires an ingestion service. bus, frames and metrics may be nil;
// a nil frames opener makes video ingestion fail with a configuration error.
func NewService(
	store datastore.Interface,
	objects objectstore.Interface,
	agg *aggregator.Aggregator,
	frames FrameOpener,
	bus *events.Bus,
	settings *conf.ObjectStoreSettings,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		store:    store,
		objects:  objects,
		agg:      agg,
		frames:   frames,
		bus:      bus,
		settings: settings,
		metrics:  metrics,
		logger:   logging.ForService("ingest"),
	}
}

// Process handles one object event. Thumbnail objects and unknown file types
// are skipped without error. Any detector or store failure leaves no record
// behind; the error is returned so the caller can retry the whole event.
func (s *Service) Process(ctx context.Context, event ObjectEvent) error {
	start := time.Now()

	if media.IsThumbnailKey(event.Key) {
		s.logger.Debug("skipping thumbnail object", "key", event.Key)
		return nil
	}

	fileType := media.FileTypeForKey(event.Key)
	if fileType == media.FileTypeUnknown {
		s.logger.Warn("skipping object with unsupported extension", "key", event.Key)
		s.observe(media.FileTypeUnknown, "skipped", start)
		return nil
	}

	owner := OwnerFromKey(event.Key)
	if owner == "" {
		s.observe(fileType, "rejected", start)
		return errors.Newf("object key %q has no owner segment", event.Key).
			Category(errors.CategoryValidation).
			Component("ingest").
			Build()
	}

	data, err := s.read(ctx, event.Key)
	if err != nil {
		s.observe(fileType, "error", start)
		return err
	}

	results, err := s.aggregate(ctx, fileType, data)
	if err != nil {
		s.observe(fileType, "error", start)
		return err
	}

	record := s.buildRecord(event.Key, owner, fileType, aggregator.Tags(results))

	old, kind, err := s.priorVersion(owner, record.ID)
	if err != nil {
		s.observe(fileType, "error", start)
		return err
	}
	if err := s.store.Upsert(&record); err != nil {
		s.observe(fileType, "error", start)
		return err
	}

	s.publish(kind, old, record)
	s.observe(fileType, "success", start)
	s.logger.Info("object ingested",
		"key", event.Key,
		"owner", owner,
		"file_type", string(fileType),
		"tags", len(record.Tags),
	)
	return nil
}

func (s *Service) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading object %s: %w", key, err)).
			Category(errors.CategoryObjectStore).
			Component("ingest").
			Build()
	}
	return data, nil
}

func (s *Service) aggregate(ctx context.Context, fileType media.FileType, data []byte) ([]aggregator.Result, error) {
	if fileType == media.FileTypeImage {
		return s.agg.AggregateImage(ctx, data)
	}

	if s.frames == nil {
		return nil, errors.Newf("no frame opener configured for video ingestion").
			Category(errors.CategoryConfiguration).
			Component("ingest").
			Build()
	}
	src, err := s.frames.Open(ctx, data)
	if err != nil {
		return nil, errors.New(fmt.Errorf("opening video frames: %w", err)).
			Category(errors.CategoryMediaProcessing).
			Component("ingest").
			Build()
	}
	return s.agg.AggregateVideo(ctx, src)
}

func (s *Service) buildRecord(key, owner string, fileType media.FileType, tags []media.Tag) media.MediaRecord {
	id := RecordIDFromKey(key)
	if id == "" {
		id = uuid.New().String()
	}

	record := media.MediaRecord{
		ID:        id,
		OwnerID:   owner,
		FileURL:   objectstore.URLFor(s.settings, key),
		FileType:  fileType,
		Tags:      tags,
		Timestamp: time.Now().UTC(),
	}
	if fileType == media.FileTypeImage {
		record.ThumbURL = objectstore.URLFor(s.settings, media.ThumbnailKey(key))
	}
	return record
}

// priorVersion looks up an existing record under the same key so a re-upload
// publishes an update transition instead of a creation. Only a definite
// not-found means creation; a transient store failure aborts the ingest so a
// retry does not misreport an update as a new record.
func (s *Service) priorVersion(owner, id string) (*media.MediaRecord, events.Kind, error) {
	existing, err := s.store.Get(owner, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, events.KindCreate, nil
		}
		return nil, events.KindCreate, err
	}
	return &existing, events.KindUpdate, nil
}

func (s *Service) publish(kind events.Kind, old *media.MediaRecord, record media.MediaRecord) {
	if s.bus == nil {
		return
	}
	if !s.bus.TryPublish(events.NewRecordEvent(kind, old, record)) {
		s.logger.Warn("event bus full, record transition dropped",
			"owner", record.OwnerID,
			"id", record.ID,
		)
	}
}

func (s *Service) observe(fileType media.FileType, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IngestsProcessed.WithLabelValues(string(fileType), status).Inc()
	s.metrics.IngestDuration.Observe(time.Since(start).Seconds())
}
