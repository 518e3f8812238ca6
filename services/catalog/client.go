package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"flixhaven/models"
)

// Error taxonomy for catalog ingestion. ErrUpstream covers transport failures
// and non-success responses and may clear up on a later run; ErrUpstreamFormat
// means the catalog changed shape under us and needs human attention.
var (
	ErrUpstream       = errors.New("catalog upstream error")
	ErrUpstreamFormat = errors.New("catalog payload format error")
)

// RawItem is one catalog entry as the external API returns it.
type RawItem struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Genres      []string `json:"genres"`
	Countries   []string `json:"countries"`
}

type pagePayload struct {
	Items       []RawItem `json:"items"`
	HasNextPage bool      `json:"hasNextPage"`
}

// Client fetches the external media catalog one page at a time.
// It performs no retries; the caller owns retry policy.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a catalog client. A nil httpc gets a 15 second timeout.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, httpc: httpc}
}

// FetchPage retrieves catalog page `page` (1-based) and reports whether more
// pages exist. Items are shape-validated here so normalization downstream is
// total.
func (c *Client) FetchPage(ctx context.Context, page int) ([]RawItem, bool, error) {
	if page < 1 {
		return nil, false, fmt.Errorf("page must be >= 1, got %d", page)
	}

	url := fmt.Sprintf("%s/catalog?page=%d", c.baseURL, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: page %d: %v", ErrUpstream, page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: page %d: %s", ErrUpstream, page, resp.Status)
	}

	var payload pagePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("%w: page %d: %v", ErrUpstreamFormat, page, err)
	}

	for i, item := range payload.Items {
		if err := validateItem(item); err != nil {
			return nil, false, fmt.Errorf("%w: page %d item %d: %v", ErrUpstreamFormat, page, i, err)
		}
	}

	return payload.Items, payload.HasNextPage, nil
}

func validateItem(item RawItem) error {
	if item.ID == "" {
		return errors.New("missing id")
	}
	if item.Title == "" {
		return errors.New("missing title")
	}
	if !models.MediaKind(item.Type).Valid() {
		return fmt.Errorf("unknown media type %q", item.Type)
	}
	return nil
}
