package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpLeadSink is the concrete LeadSink backed by the lead-capture endpoint.
type httpLeadSink struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPLeadSink returns a LeadSink that POSTs leads to endpoint.
func NewHTTPLeadSink(endpoint string) LeadSink {
	return &httpLeadSink{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type leadResponse struct {
	LeadID string `json:"lead_id"`
	Error  string `json:"error"`
}

// CaptureLead upserts the lead and returns the identifier assigned by the
// sink. A repeat call for the same visitor returns the same identifier.
func (c *httpLeadSink) CaptureLead(ctx context.Context, lead Lead) (string, error) {
	respBytes, err := postJSON(ctx, c.httpClient, c.endpoint, nil, lead)
	if err != nil {
		return "", fmt.Errorf("delivery: capture lead: %w", err)
	}

	var parsed leadResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("delivery: unmarshal lead response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("delivery: lead sink error: %s", parsed.Error)
	}
	return parsed.LeadID, nil
}

// httpSubmitter is the concrete Submitter. Primary and fallback are separate
// endpoints: the primary forwards to the downstream workflow, the fallback is
// a direct webhook POST that skips the workflow entirely.
type httpSubmitter struct {
	primaryURL  string
	fallbackURL string
	httpClient  *http.Client
}

// NewHTTPSubmitter returns a Submitter posting to primaryURL with fallbackURL
// as the direct-webhook escape hatch.
func NewHTTPSubmitter(primaryURL, fallbackURL string) Submitter {
	return &httpSubmitter{
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Submit posts the payload to the primary endpoint.
func (c *httpSubmitter) Submit(ctx context.Context, p Payload) error {
	p.Fallback = false
	if _, err := postJSON(ctx, c.httpClient, c.primaryURL, nil, p); err != nil {
		return fmt.Errorf("delivery: submit: %w", err)
	}
	return nil
}

// SubmitFallback posts the payload to the fallback webhook with the fallback
// marker set so the receiver can distinguish the two paths.
func (c *httpSubmitter) SubmitFallback(ctx context.Context, p Payload) error {
	p.Fallback = true
	if _, err := postJSON(ctx, c.httpClient, c.fallbackURL, nil, p); err != nil {
		return fmt.Errorf("delivery: submit fallback: %w", err)
	}
	return nil
}

// httpTracker is the concrete Tracker. The tracking endpoint is tag-manager
// shaped: it takes an event name and the session metadata and returns nothing
// useful. Only completion-before-deadline matters to the caller.
type httpTracker struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPTracker returns a Tracker that POSTs events to endpoint.
func NewHTTPTracker(endpoint string) Tracker {
	return &httpTracker{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type trackEvent struct {
	Event string `json:"event"`
	Meta  Meta   `json:"meta"`
}

func (c *httpTracker) Track(ctx context.Context, event string, meta Meta) error {
	if _, err := postJSON(ctx, c.httpClient, c.endpoint, nil, trackEvent{Event: event, Meta: meta}); err != nil {
		return fmt.Errorf("delivery: track %q: %w", event, err)
	}
	return nil
}

// ─── HTTP POST ────────────────────────────────────────────────────────────────

// postJSON marshals body, POSTs it to url, and returns the response bytes.
// Non-2xx statuses are errors; the body is capped to keep error messages and
// memory bounded.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}
	return respBytes, nil
}
