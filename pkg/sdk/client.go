// Package itemradar provides a typed HTTP client for the itemradar API.
package itemradar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to an itemradar server over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

type clientConfig struct {
	apiKey  string
	httpc   *http.Client
	timeout time.Duration
}

// Option customizes the client.
type Option func(*clientConfig)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *clientConfig) { c.httpc = httpc }
}

// WithTimeout sets the per-request timeout. Ignored when a custom
// HTTP client is supplied.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	cfg := clientConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpc := cfg.httpc
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.apiKey,
		httpc:   httpc,
	}, nil
}

// RegisterItem registers a single lost or found item.
func (c *Client) RegisterItem(ctx context.Context, req RegisterItemRequest) (Item, error) {
	var out Item
	err := c.do(ctx, http.MethodPost, "/items", req, &out)
	return out, err
}

// RegisterBatch registers up to 100 items in one call. Per-item
// failures are reported in the corresponding BatchResult.
func (c *Client) RegisterBatch(ctx context.Context, items []RegisterItemRequest) ([]BatchResult, error) {
	body := struct {
		Items []RegisterItemRequest `json:"items"`
	}{Items: items}
	var out struct {
		Results []BatchResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/items/batch", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// ListItems returns a page of items in the given category. Status,
// offset and limit are optional; their zero values mean any status,
// the first page and the server's default page size.
func (c *Client) ListItems(ctx context.Context, req ListItemsRequest) (ItemList, error) {
	q := url.Values{}
	q.Set("category", req.Category)
	if req.Status != "" {
		q.Set("status", req.Status)
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	var out ItemList
	err := c.do(ctx, http.MethodGet, "/items?"+q.Encode(), nil, &out)
	return out, err
}

// GetItem fetches an item by ID.
func (c *Client) GetItem(ctx context.Context, itemID string) (Item, error) {
	var out Item
	err := c.do(ctx, http.MethodGet, "/items/"+url.PathEscape(itemID), nil, &out)
	return out, err
}

// UpdateItemStatus applies a lifecycle action ("matched", "expired",
// "spam") to an item. The matched action requires the counterpart
// item id in matchedWith; the other actions ignore it.
func (c *Client) UpdateItemStatus(ctx context.Context, itemID, action, matchedWith string) (Item, error) {
	body := struct {
		Action      string `json:"action"`
		MatchedWith string `json:"matched_with,omitempty"`
	}{Action: action, MatchedWith: matchedWith}
	var out Item
	err := c.do(ctx, http.MethodPost, "/items/"+url.PathEscape(itemID)+"/status", body, &out)
	return out, err
}

// StartSession opens a new search session.
func (c *Client) StartSession(ctx context.Context) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &out)
	return out, err
}

// GetSession fetches the full state of a session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, ""), nil, &out)
	return out, err
}

// InitiateSearch registers the lost item described in req and moves
// the session to the ready_to_search phase.
func (c *Client) InitiateSearch(ctx context.Context, sessionID string, req SearchRequest) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "search"), req, &out)
	return out, err
}

// CheckPhase returns the session's current workflow phase.
func (c *Client) CheckPhase(ctx context.Context, sessionID string) (string, error) {
	var out struct {
		Phase string `json:"phase"`
	}
	if err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, "phase"), nil, &out); err != nil {
		return "", err
	}
	return out.Phase, nil
}

// StoreMatchResults runs the match search for the session's lost item
// and stores the surviving candidates.
func (c *Client) StoreMatchResults(ctx context.Context, sessionID string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "matches"), nil, &out)
	return out, err
}

// GetQuestion asks for the next clarifying question. Available is
// false when the session cannot take another question.
func (c *Client) GetQuestion(ctx context.Context, sessionID string) (Question, error) {
	var out Question
	err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, "question"), nil, &out)
	return out, err
}

// StoreAnswer records the user's answer to a clarifying question.
// An empty question defaults to the session's current question.
func (c *Client) StoreAnswer(ctx context.Context, sessionID, question, answer string) (Session, error) {
	body := struct {
		Question string `json:"question,omitempty"`
		Answer   string `json:"answer"`
	}{Question: question, Answer: answer}
	var out Session
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "answer"), body, &out)
	return out, err
}

// ApplyFilter narrows the candidate list using the recorded answer.
func (c *Client) ApplyFilter(ctx context.Context, sessionID string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "filter"), nil, &out)
	return out, err
}

// FinalResult formats the final match for a session that narrowed
// down to a single candidate.
func (c *Client) FinalResult(ctx context.Context, sessionID string) (Result, error) {
	var out Result
	err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, "result"), nil, &out)
	return out, err
}

// Health reports the server's health checks.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Usage reports inventory counts and AI budget consumption.
func (c *Client) Usage(ctx context.Context) (Usage, error) {
	var out Usage
	err := c.do(ctx, http.MethodGet, "/usage", nil, &out)
	return out, err
}

func (c *Client) sessionPath(sessionID, suffix string) string {
	p := "/sessions/" + url.PathEscape(sessionID)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
