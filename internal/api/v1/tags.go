package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/events"
	"github.com/john-samurai/birdtag-go/internal/media"
	"github.com/john-samurai/birdtag-go/internal/tagengine"
)

// EditTagsRequest is the bulk tag edit payload. Operation 1 adds or
// replaces, 0 removes exact pairs. Tags use the "species,count" literal form.
type EditTagsRequest struct {
	URL       []string `json:"url"`
	Operation int      `json:"operation"`
	Tags      []string `json:"tags"`
}

// EditTagsResponse reports how many records changed.
type EditTagsResponse struct {
	Message string `json:"message"`
}

// EditTags handles POST /api/v1/tags. The whole request is validated before
// any record is touched; the fan-out itself is per-record independent.
func (c *Controller) EditTags(ctx echo.Context) error {
	var req EditTagsRequest
	if err := ctx.Bind(&req); err != nil {
		verr := errors.New(fmt.Errorf("decoding edit request: %w", err)).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
		return c.HandleError(ctx, verr, "invalid request body")
	}

	op, tags, err := validateEditRequest(&req)
	if err != nil {
		return c.HandleError(ctx, err, "invalid edit request")
	}

	report, err := c.editor.FanOut(req.URL, op, tags)
	if err != nil {
		return c.HandleError(ctx, err, "tag edit failed")
	}

	if report.Updated > 0 {
		// Cached search responses may now reference stale tag sets.
		c.searchCache.Flush()
	}

	for i := range report.Changes {
		c.publishUpdate(&report.Changes[i])
	}
	if c.metrics != nil {
		c.metrics.EditFanOutSize.Observe(float64(report.Matched))
	}

	c.apiLogger.Info("tag edit applied",
		"urls", len(req.URL),
		"operation", int(op),
		"matched", report.Matched,
		"updated", report.Updated,
		"failures", len(report.Failures),
	)
	return ctx.JSON(http.StatusOK, &EditTagsResponse{
		Message: fmt.Sprintf("%d item(s) updated", report.Updated),
	})
}

// validateEditRequest checks the payload up front, all-or-nothing: any
// malformed field rejects the request before a single record is mutated.
func validateEditRequest(req *EditTagsRequest) (tagengine.Operation, []media.Tag, error) {
	if len(req.URL) == 0 {
		return 0, nil, errors.ValidationError("url list must not be empty")
	}
	for _, u := range req.URL {
		if strings.TrimSpace(u) == "" {
			return 0, nil, errors.ValidationError("url list must not contain empty entries")
		}
	}
	if len(req.Tags) == 0 {
		return 0, nil, errors.ValidationError("tags list must not be empty")
	}

	op, err := tagengine.ParseOperation(req.Operation)
	if err != nil {
		return 0, nil, err
	}

	tags := make([]media.Tag, 0, len(req.Tags))
	for _, literal := range req.Tags {
		tag, err := media.ParseTagLiteral(literal)
		if err != nil {
			return 0, nil, err
		}
		tags = append(tags, tag)
	}
	return op, tags, nil
}

func (c *Controller) publishUpdate(change *tagengine.Change) {
	if c.bus == nil {
		return
	}
	if !c.bus.TryPublish(events.NewRecordEvent(events.KindUpdate, &change.Old, change.New)) {
		c.apiLogger.Warn("event bus full, edit transition dropped",
			"owner", change.New.OwnerID,
			"id", change.New.ID,
		)
	}
}
