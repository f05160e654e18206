package mediamtx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// pollTimeout bounds every call to ListActive. A single attempt is made;
// the reconciler, not this client, decides what a failed poll means.
const pollTimeout = 5 * time.Second

const pathsListRoute = "/v3/paths/list"

// StreamName identifies a MediaMTX path.
type StreamName string

// pathsListResponse mirrors the upstream JSON body.
type pathsListResponse struct {
	Items []pathItem `json:"items"`
}

type pathItem struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Source any    `json:"source"`
}

// Client polls the upstream streaming server for the set of live streams.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Client against apiBase, e.g. "http://127.0.0.1:9997".
func NewClient(apiBase string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: pollTimeout}
	}

	return &Client{apiBase: apiBase, httpClient: httpClient}
}

// ListActive returns the names of streams that are ready with a non-nil
// source. Any transport error, non-200 response, or malformed body is
// returned as a single poll failure; there is no client-side retry here
// because a failed poll is handled at the reconciler level by simply not
// mutating the session table.
func (c *Client) ListActive(ctx context.Context) ([]StreamName, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+pathsListRoute, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PollError{Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &PollError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w", ErrBadStatus),
		}
	}

	var body pathsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &PollError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %w", ErrMalformed, err),
		}
	}

	active := make([]StreamName, 0, len(body.Items))

	for _, item := range body.Items {
		if item.Ready && item.Source != nil {
			active = append(active, StreamName(item.Name))
		}
	}

	return active, nil
}
