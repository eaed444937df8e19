package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cubetimer/internal/record"
)

// ErrRejected matches any well-formed response whose status is not success.
var ErrRejected = errors.New("request rejected")

// RejectedError carries the server's explanation for a rejected request.
type RejectedError struct {
	Status  string
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected with status %q", e.Status)
	}
	return fmt.Sprintf("request rejected: %s", e.Message)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Client talks to the collaborator server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type envelope struct {
	Status  string        `json:"status"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Record  record.Record `json:"record"`
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Save stores a formatted time and returns the record the server created.
func (c *Client) Save(ctx context.Context, formatted string) (record.Record, error) {
	var resp envelope
	if err := c.post(ctx, "/save", map[string]string{"time": formatted}, &resp); err != nil {
		return record.Record{}, fmt.Errorf("save time: %w", err)
	}
	return resp.Record, nil
}

// Delete removes rec. The id is authoritative; the time is sent for servers
// that only key records by their formatted value.
func (c *Client) Delete(ctx context.Context, rec record.Record) error {
	body := map[string]string{"time": rec.Time}
	if rec.ID != "" {
		body["id"] = rec.ID
	}
	var resp envelope
	if err := c.post(ctx, "/delete", body, &resp); err != nil {
		return fmt.Errorf("delete time: %w", err)
	}
	return nil
}

// Times fetches every stored time, oldest first.
func (c *Client) Times(ctx context.Context) ([]string, error) {
	var times []string
	if err := c.get(ctx, "/times", &times); err != nil {
		return nil, fmt.Errorf("fetch times: %w", err)
	}
	return times, nil
}

// Records fetches every stored record, oldest first.
func (c *Client) Records(ctx context.Context) ([]record.Record, error) {
	var records []record.Record
	if err := c.get(ctx, "/records", &records); err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	return records, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out *envelope) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if out.Status != "success" {
		return &RejectedError{Status: out.Status, Code: out.Code, Message: out.Message}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body envelope
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &RejectedError{Status: body.Status, Code: body.Code, Message: body.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
