package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitly-client/models"
)

// Scrape asks the backend to import the product at productURL.
func (c *Client) Scrape(ctx context.Context, productURL string) (models.Product, error) {
	productURL = strings.TrimSpace(productURL)
	if !isHTTPURL(productURL) {
		return models.Product{}, fmt.Errorf("invalid product URL %q", productURL)
	}
	p, err := jsonPayload(map[string]string{"url": productURL})
	if err != nil {
		return models.Product{}, err
	}
	var out models.Product
	if err := c.do(ctx, http.MethodPost, "/scrape", p, &out); err != nil {
		return models.Product{}, err
	}
	return out, nil
}
