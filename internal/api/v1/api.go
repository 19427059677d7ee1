// Package api implements the HTTP surface: tag search, bulk tag edits and
// media deletion, mounted under /api/v1.
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/john-samurai/birdtag-go/internal/conf"
	"github.com/john-samurai/birdtag-go/internal/datastore"
	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/events"
	"github.com/john-samurai/birdtag-go/internal/logging"
	"github.com/john-samurai/birdtag-go/internal/objectstore"
	"github.com/john-samurai/birdtag-go/internal/observability"
	"github.com/john-samurai/birdtag-go/internal/tagengine"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Settings *conf.Settings
	Objects  objectstore.Interface

	editor      *tagengine.Editor
	bus         *events.Bus
	searchCache *cache.Cache
	metrics     *observability.Metrics
	apiLogger   *slog.Logger
}

// New creates the API controller and registers its routes on the echo
// instance. bus and metrics may be nil.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	objects objectstore.Interface, bus *events.Bus, metrics *observability.Metrics) *Controller {

	cacheTTL := settings.Server.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	c := &Controller{
		Echo:        e,
		Group:       e.Group("/api/v1"),
		DS:          ds,
		Settings:    settings,
		Objects:     objects,
		editor:      tagengine.NewEditor(ds),
		bus:         bus,
		searchCache: cache.New(cacheTTL, 2*cacheTTL),
		metrics:     metrics,
		apiLogger:   logging.ForService("api"),
	}
	c.initRoutes()
	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)
	c.Group.GET("/search", c.SearchByTags)
	c.Group.GET("/search/thumb", c.SearchByThumbURL)
	c.Group.POST("/tags", c.EditTags)
	c.Group.POST("/media/delete", c.DeleteMedia)
}

// HealthCheck returns a simple status for liveness probes.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates an error payload with a fresh correlation id.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError maps an error onto an HTTP status from its category and writes
// the standard error payload.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := statusForError(err)
	resp := NewErrorResponse(err, message, code)

	c.apiLogger.Error("request failed",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", resp.Error,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)
	return ctx.JSON(code, resp)
}

// statusForError translates the error taxonomy into HTTP status codes:
// validation 400, not-found 404, unavailable dependencies 503, anything
// else 500.
func statusForError(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryDetector),
		errors.IsCategory(err, errors.CategoryNotification),
		errors.IsCategory(err, errors.CategoryNetwork),
		errors.IsCategory(err, errors.CategoryDatabase),
		errors.IsCategory(err, errors.CategoryObjectStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
