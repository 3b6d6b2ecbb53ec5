package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/raushankrgupta/fitly-client/models"
)

// Gallery fetches one page of the user's completed try-ons, newest first.
// Non-positive page or limit fall back to 1 and 10.
func (c *Client) Gallery(ctx context.Context, page, limit int) (models.GalleryPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var out models.GalleryPage
	if err := c.do(ctx, http.MethodGet, "/gallery?"+q.Encode(), nil, &out); err != nil {
		return models.GalleryPage{}, err
	}
	return out, nil
}
