// Package store is the HTTP client for the external knowledge base.
// The base is treated as an opaque collaborator: a paginated record query,
// a single-key report lookup, and a replace-or-create report write.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Record is a raw reflection record as returned by the knowledge base.
type Record struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Experience  string   `json:"experience"`
	Reflection  string   `json:"reflection"`
	Abstraction string   `json:"abstraction"`
	NextAction  string   `json:"next_action"`
	Tags        []string `json:"tags,omitempty"`
}

// Page is one page of query results.
type Page struct {
	Records    []Record `json:"records"`
	NextCursor string   `json:"next_cursor,omitempty"`
	HasMore    bool     `json:"has_more"`
}

// Query describes a date-range record query against a collection.
type Query struct {
	Collection string
	DateFrom   string
	DateTo     string
	Cursor     string
	PageSize   int
}

// ReportContent is the full content written for a report record.
// Upserts replace the whole content; there is no partial update.
type ReportContent struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	EntryCount int    `json:"entry_count"`
	GapCount   int    `json:"gap_count"`
}

// ReportRecord is a stored report as returned by the knowledge base.
type ReportRecord struct {
	ID string `json:"id"`
	ReportContent
}

// APIError is a non-2xx response from the knowledge base.
// Extractable via errors.As().
type APIError struct {
	Operation  string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store: %s failed (status %d)", e.Operation, e.StatusCode)
}

// Transient reports whether the failure is worth retrying
// (rate limiting or a server-side error).
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to the knowledge base over JSON HTTP.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a store client. The API token is read from the
// environment variable named by tokenEnv; an empty token disables auth.
func NewClient(baseURL, tokenEnv string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   os.Getenv(tokenEnv),
		client:  &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Cursor   string `json:"cursor,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// QueryRecords fetches one page of records whose date falls in the query range.
func (c *Client) QueryRecords(ctx context.Context, q Query) (*Page, error) {
	body, err := json.Marshal(queryRequest{
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Cursor:   q.Cursor,
		PageSize: q.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/collections/%s/query", c.baseURL, url.PathEscape(q.Collection))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Operation: "query", StatusCode: resp.StatusCode}
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return &page, nil
}

// FindReport looks up the report stored under key. A missing report is a
// valid outcome and returns (nil, nil).
func (c *Client) FindReport(ctx context.Context, collection, key string) (*ReportRecord, error) {
	endpoint := c.reportURL(collection, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("finding report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Operation: "find", StatusCode: resp.StatusCode}
	}

	var rec ReportRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &rec, nil
}

// UpsertReport writes content under key, replacing any prior report whole.
// Returns the record ID assigned by the store.
func (c *Client) UpsertReport(ctx context.Context, collection, key string, content ReportContent) (string, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.reportURL(collection, key), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upserting report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &APIError{Operation: "upsert", StatusCode: resp.StatusCode}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding upsert response: %w", err)
	}
	return result.ID, nil
}

func (c *Client) reportURL(collection, key string) string {
	return fmt.Sprintf("%s/v1/collections/%s/reports/%s",
		c.baseURL, url.PathEscape(collection), url.PathEscape(key))
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
