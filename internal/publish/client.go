// Package publish delivers labeling results to the downstream serialization
// service over HTTP.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/doclabel/internal/engine"
)

// Client communicates with the serialization service HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Payload is the body for PUT /documents/{docID}/labels.
type Payload struct {
	DocID       string         `json:"doc_id"`
	Filename    string         `json:"filename"`
	ContentHash string         `json:"content_hash"`
	Result      *engine.Result `json:"result"`
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// Put sends a labeling result for a document, replacing any earlier one.
func (c *Client) Put(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.labelsURL(p.DocID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()
	return checkStatus(resp, "put labels "+p.DocID, http.StatusOK, http.StatusCreated, http.StatusNoContent)
}

// Delete removes the published result for a document. A document the
// service does not know is not an error.
func (c *Client) Delete(ctx context.Context, docID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.labelsURL(docID), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("delete labels: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp, "delete labels "+docID, http.StatusOK, http.StatusNoContent, http.StatusNotFound)
}

// Close drops idle keep-alive connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) labelsURL(docID string) string {
	return c.baseURL + "/documents/" + url.PathEscape(docID) + "/labels"
}

func checkStatus(resp *http.Response, op string, ok ...int) error {
	for _, code := range ok {
		if resp.StatusCode == code {
			return nil
		}
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
