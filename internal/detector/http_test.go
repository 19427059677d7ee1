package detector

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/errors"
)

func newTestDetector() *HTTPDetector {
	return NewHTTPDetector(&conf.DetectorSettings{
		Endpoint: "http://inference.local/detect",
		Timeout:  5 * time.Second,
	})
}

func TestHTTPDetectorDetect(t *testing.T) {
	d := newTestDetector()
	httpmock.ActivateNonDefault(d.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://inference.local/detect",
		httpmock.NewStringResponder(http.StatusOK,
			`{"detections":[{"label":"crow","confidence":0.9},{"label":"crow","confidence":0.7},{"label":"pigeon","confidence":0.6}]}`))

	detections, err := d.Detect(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)
	require.Len(t, detections, 3)
	assert.Equal(t, RawDetection{Label: "crow", Confidence: 0.9}, detections[0])
	assert.Equal(t, RawDetection{Label: "pigeon", Confidence: 0.6}, detections[2])
}

func TestHTTPDetectorServerError(t *testing.T) {
	d := newTestDetector()
	httpmock.ActivateNonDefault(d.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://inference.local/detect",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "model loading"))

	_, err := d.Detect(context.Background(), []byte("image-bytes"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDetector))
}

func TestHTTPDetectorBadPayload(t *testing.T) {
	d := newTestDetector()
	httpmock.ActivateNonDefault(d.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://inference.local/detect",
		httpmock.NewStringResponder(http.StatusOK, "not json"))

	_, err := d.Detect(context.Background(), []byte("image-bytes"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDetector))
}

func TestHTTPDetectorContextCancelled(t *testing.T) {
	d := newTestDetector()
	httpmock.ActivateNonDefault(d.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://inference.local/detect",
		httpmock.NewStringResponder(http.StatusOK, `{"detections":[]}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, []byte("image-bytes"))
	require.Error(t, err)
}
