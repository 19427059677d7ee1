package api

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/john-samurai/birdtag-go/internal/errors"
	"github.com/john-samurai/birdtag-go/internal/tagengine"
)

// LinksResponse is the result payload of both search surfaces.
type LinksResponse struct {
	Links []string `json:"links"`
}

// SearchByTags handles GET /api/v1/search. Query pairs tag1=crow&count1=3
// form a conjunctive query; every tagN requires a valid countN. Results are
// the thumbnail URL for images and the file URL for videos.
func (c *Controller) SearchByTags(ctx echo.Context) error {
	query, err := parseTagQuery(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "invalid search query")
	}

	cacheKey := canonicalQueryKey(query)
	if cached, found := c.searchCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached.(*LinksResponse))
	}

	records, err := c.DS.GetAll()
	if err != nil {
		return c.HandleError(ctx, err, "search failed")
	}

	resp := &LinksResponse{Links: tagengine.MatchByTags(query, records)}
	if resp.Links == nil {
		resp.Links = []string{}
	}
	c.searchCache.Set(cacheKey, resp, cache.DefaultExpiration)

	c.apiLogger.Debug("tag search",
		"conditions", len(query),
		"matches", len(resp.Links),
	)
	return ctx.JSON(http.StatusOK, resp)
}

// SearchByThumbURL handles GET /api/v1/search/thumb. Query params
// turl1..turlN are thumbnail URLs; the response carries the full-size file
// URL of each matching image record.
func (c *Controller) SearchByThumbURL(ctx echo.Context) error {
	var urls []string
	for i := 1; ; i++ {
		value := ctx.QueryParam(fmt.Sprintf("turl%d", i))
		if value == "" {
			break
		}
		urls = append(urls, value)
	}
	if len(urls) == 0 {
		err := errors.ValidationError("at least one turlN parameter is required")
		return c.HandleError(ctx, err, "invalid thumbnail query")
	}

	records, err := c.DS.GetAll()
	if err != nil {
		return c.HandleError(ctx, err, "thumbnail lookup failed")
	}

	resp := &LinksResponse{Links: tagengine.MatchByThumbURL(urls, records)}
	if resp.Links == nil {
		resp.Links = []string{}
	}
	return ctx.JSON(http.StatusOK, resp)
}

// parseTagQuery extracts the tagN/countN pairs. Numbering starts at 1 and
// stops at the first missing tagN. A tagN without a parsable countN fails
// the whole request.
func parseTagQuery(ctx echo.Context) (tagengine.Query, error) {
	var query tagengine.Query
	for i := 1; ; i++ {
		species := strings.TrimSpace(ctx.QueryParam(fmt.Sprintf("tag%d", i)))
		if species == "" {
			break
		}
		countParam := ctx.QueryParam(fmt.Sprintf("count%d", i))
		if countParam == "" {
			return nil, errors.Newf("tag%d has no matching count%d", i, i).
				Category(errors.CategoryValidation).
				Component("api").
				Build()
		}
		count, err := strconv.Atoi(countParam)
		if err != nil || count < 0 {
			return nil, errors.Newf("count%d must be a non-negative integer, got %q", i, countParam).
				Category(errors.CategoryValidation).
				Component("api").
				Build()
		}
		query = append(query, tagengine.Condition{Species: species, MinCount: count})
	}

	if len(query) == 0 {
		return nil, errors.ValidationError("at least one tagN/countN pair is required")
	}
	return query, nil
}

// canonicalQueryKey renders a query in a form independent of condition
// order, so equivalent queries share a cache entry.
func canonicalQueryKey(query tagengine.Query) string {
	parts := make([]string, 0, len(query))
	for _, cond := range query {
		parts = append(parts, strings.ToLower(cond.Species)+"="+strconv.Itoa(cond.MinCount))
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}
