// Package fuzzy provides the fuzzy-match collaborator: an HTTP client for a
// remote ranking service and a built-in matcher backed by the local database.
package fuzzy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"opsbot/internal/models"
)

// Client calls a remote fuzzy-match service over HTTP:
// GET {base}/search/fuzzy?type=&q=&limit=&minScore=
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a fuzzy search client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Search queries the collaborator for up to limit candidates scoring at least
// minScore, sorted by score descending.
func (c *Client) Search(ctx context.Context, entityType models.EntityType, query string, limit int, minScore float64) ([]models.EntityMatch, error) {
	params := url.Values{}
	params.Set("type", string(entityType))
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("minScore", strconv.FormatFloat(minScore, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/fuzzy?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fuzzy search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fuzzy search returned HTTP %d", resp.StatusCode)
	}

	var decoded models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode fuzzy search response: %w", err)
	}

	return decoded.Matches, nil
}
