package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/media"
	"github.com/john-samurai/birdtag-go/internal/objectstore"
)

// DeleteMediaRequest lists the media URLs to remove. Each link may be a file
// or thumbnail URL.
type DeleteMediaRequest struct {
	Links []string `json:"links"`
}

// DeleteResults splits the per-URL outcomes of a bulk delete.
type DeleteResults struct {
	Success  []string        `json:"success"`
	Failures []DeleteFailure `json:"failures"`
}

// DeleteFailure names one link that could not be fully removed.
type DeleteFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// DeleteMediaResponse is the bulk delete summary.
type DeleteMediaResponse struct {
	Message string        `json:"message"`
	Results DeleteResults `json:"results"`
}

// DeleteMedia handles POST /api/v1/media/delete. Each link is processed
// independently, best effort: the record is removed from the store and the
// underlying blob plus its thumbnail from object storage. One link's failure
// never aborts the others.
func (c *Controller) DeleteMedia(ctx echo.Context) error {
	var req DeleteMediaRequest
	if err := ctx.Bind(&req); err != nil {
		verr := errors.New(fmt.Errorf("decoding delete request: %w", err)).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
		return c.HandleError(ctx, verr, "invalid request body")
	}
	if len(req.Links) == 0 {
		err := errors.ValidationError("links list must not be empty")
		return c.HandleError(ctx, err, "invalid delete request")
	}
	for _, link := range req.Links {
		if strings.TrimSpace(link) == "" {
			err := errors.ValidationError("links list must not contain empty entries")
			return c.HandleError(ctx, err, "invalid delete request")
		}
	}

	results := DeleteResults{Success: []string{}, Failures: []DeleteFailure{}}
	for _, link := range req.Links {
		if err := c.deleteOne(ctx, link); err != nil {
			results.Failures = append(results.Failures, DeleteFailure{URL: link, Reason: err.Error()})
			continue
		}
		results.Success = append(results.Success, link)
	}

	if len(results.Success) > 0 {
		// Cached search responses may still reference the removed records.
		c.searchCache.Flush()
	}

	c.apiLogger.Info("bulk delete finished",
		"requested", len(req.Links),
		"deleted", len(results.Success),
		"failed", len(results.Failures),
	)
	return ctx.JSON(http.StatusOK, &DeleteMediaResponse{
		Message: fmt.Sprintf("%d of %d link(s) deleted", len(results.Success), len(req.Links)),
		Results: results,
	})
}

// deleteOne removes one link end to end: record first, then blobs. Blob
// removal failures after the record is gone are logged but not surfaced, the
// record deletion is the authoritative part.
func (c *Controller) deleteOne(ctx echo.Context, link string) error {
	record, err := c.DS.GetByURL(link)
	if err != nil {
		return err
	}

	if _, err := c.DS.DeleteByURL(link); err != nil {
		return err
	}

	c.deleteBlob(ctx, record.FileURL)
	if record.FileType == media.FileTypeImage && record.ThumbURL != "" {
		c.deleteBlob(ctx, record.ThumbURL)
	}
	return nil
}

func (c *Controller) deleteBlob(ctx echo.Context, url string) {
	if c.Objects == nil || url == "" {
		return
	}
	key, err := objectstore.KeyFromURL(&c.Settings.ObjectStore, url)
	if err != nil {
		c.apiLogger.Warn("cannot derive object key", "url", url, "error", err)
		return
	}
	if err := c.Objects.Delete(ctx.Request().Context(), key); err != nil && !errors.IsNotFound(err) {
		c.apiLogger.Warn("blob removal failed", "key", key, "error", err)
	}
}
