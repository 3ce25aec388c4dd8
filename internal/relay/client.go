package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omgcreativity/laojia/internal/models"
)

// Marker framing for bridge responses. The payload is embedded in an HTML
// page so a browser-automation worker can scrape it out of the rendered
// body text.
const (
	MarkerPrefix = "BRIDGE_DATA:"
	MarkerSuffix = ":END"
)

// ErrMarkerNotFound means the page body carried no BRIDGE_DATA marker. For
// a fetch that is the "page still loading / wrong state" signal, not a
// protocol error; callers treat it as a soft negative.
var ErrMarkerNotFound = errors.New("bridge marker not found in page body")

// Client is the worker-side HTTP client for the bridge endpoints. It talks
// the same scraping protocol a headless-browser worker would: GET the page,
// find the marker in the body, parse the JSON between the delimiters.
type Client struct {
	baseURL  string
	username string
	http     *http.Client
}

// NewClient creates a bridge client for one user against baseURL.
func NewClient(baseURL, username string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// extractMarker pulls the JSON payload out of a page body. The server
// HTML-escapes the payload for the <pre> block; a rendered-text scraper gets
// the original characters back from the browser, but this client reads raw
// bytes and must undo the escaping itself.
func extractMarker(body string) (string, error) {
	start := strings.Index(body, MarkerPrefix)
	if start < 0 {
		return "", ErrMarkerNotFound
	}
	rest := body[start+len(MarkerPrefix):]
	end := strings.Index(rest, MarkerSuffix)
	if end < 0 {
		return "", ErrMarkerNotFound
	}
	return html.UnescapeString(rest[:end]), nil
}

func (c *Client) get(ctx context.Context, query url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}
	return string(body), nil
}

// FetchPending polls the bridge for an unanswered user message.
func (c *Client) FetchPending(ctx context.Context) (models.BridgeFetchResponse, error) {
	query := url.Values{}
	query.Set("action", "get")
	query.Set("user", c.username)

	body, err := c.get(ctx, query)
	if err != nil {
		return models.BridgeFetchResponse{}, err
	}

	payload, err := extractMarker(body)
	if err != nil {
		return models.BridgeFetchResponse{}, err
	}

	var resp models.BridgeFetchResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return models.BridgeFetchResponse{}, fmt.Errorf("malformed bridge payload: %w", err)
	}
	return resp, nil
}

// SubmitAnswer delivers the model's answer. Returns false when the bridge
// rejected the submit (no marker in the page): the answer was already
// delivered by an earlier attempt, which is not an error.
func (c *Client) SubmitAnswer(ctx context.Context, text string) (bool, error) {
	query := url.Values{}
	query.Set("action", "put")
	query.Set("user", c.username)
	query.Set("msg", text)

	body, err := c.get(ctx, query)
	if err != nil {
		return false, err
	}

	payload, err := extractMarker(body)
	if err != nil {
		if errors.Is(err, ErrMarkerNotFound) {
			return false, nil
		}
		return false, err
	}

	var resp models.BridgeSubmitResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return false, fmt.Errorf("malformed bridge payload: %w", err)
	}
	return resp.Status == "success", nil
}
