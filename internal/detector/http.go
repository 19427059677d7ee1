package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/observability"
)

const defaultTimeout = 30 * time.Second

var metrics atomic.Pointer[observability.Metrics]

// SetMetrics wires the shared metrics instance into the detector client.
func SetMetrics(m *observability.Metrics) {
	metrics.Store(m)
}

func observeRequest(status string, start time.Time) {
	m := metrics.Load()
	if m == nil {
		return
	}
	m.DetectorRequests.WithLabelValues(status).Inc()
	m.DetectorLatency.Observe(time.Since(start).Seconds())
}

// HTTPDetector calls a remote inference endpoint over HTTP.
// The endpoint accepts raw image bytes and responds with
// {"detections":[{"label":"crow","confidence":0.92}, ...]}.
type HTTPDetector struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// detectResponse is the wire shape of the inference endpoint response.
type detectResponse struct {
	Detections []RawDetection `json:"detections"`
}

// NewHTTPDetector creates a detector client from settings.
func NewHTTPDetector(settings *conf.DetectorSettings) *HTTPDetector {
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPDetector{
		endpoint: settings.Endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logging.ForService("detector"),
	}
}

// Detect implements Interface by posting the image to the inference endpoint.
func (d *HTTPDetector) Detect(ctx context.Context, image []byte) ([]RawDetection, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDetector).
			Component("detector").
			Build()
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		observeRequest("error", start)
		return nil, errors.New(fmt.Errorf("detection request failed: %w", err)).
			Category(errors.CategoryDetector).
			Component("detector").
			Timing("detect", time.Since(start)).
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		observeRequest("error", start)
		return nil, errors.Newf("detection endpoint returned status %d", resp.StatusCode).
			Category(errors.CategoryDetector).
			Component("detector").
			Context("status_code", resp.StatusCode).
			Build()
	}

	var decoded detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		observeRequest("error", start)
		return nil, errors.New(fmt.Errorf("decoding detection response: %w", err)).
			Category(errors.CategoryDetector).
			Component("detector").
			Build()
	}

	observeRequest("success", start)
	d.logger.Debug("detection completed",
		"detections", len(decoded.Detections),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return decoded.Detections, nil
}
