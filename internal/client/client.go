// Package client talks to the student register JSON API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/carlmjohnson/requests"

	"github.com/aanand-mishra/student-register/internal/http/handlers/student"
	"github.com/aanand-mishra/student-register/internal/utils/response"
	"github.com/aanand-mishra/student-register/internal/validate"
)

// APIError is a non-2xx reply. Message is the server's error text.
type APIError struct {
	StatusCode int
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return e.Message
}

// Client is safe for concurrent use.
type Client struct {
	base string
	hc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New returns a Client for the server at base, e.g. "http://localhost:8082".
func New(base string, opts ...Option) *Client {
	c := &Client{base: base, hc: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) req(path string, status *int) *requests.Builder {
	return requests.
		URL(c.base).
		Path(path).
		Client(c.hc).
		AddValidator(checkStatus(status))
}

// checkStatus accepts 2xx replies, recording the code in status when it is
// non-nil, and turns anything else into an *APIError.
func checkStatus(status *int) requests.ResponseHandler {
	return func(res *http.Response) error {
		if status != nil {
			*status = res.StatusCode
		}
		if res.StatusCode >= 200 && res.StatusCode < 300 {
			return nil
		}

		apiErr := &APIError{StatusCode: res.StatusCode}
		body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return apiErr
		}
		var env response.Response
		if json.Unmarshal(body, &env) == nil {
			apiErr.Message = env.Error
			apiErr.Field = env.Field
		}
		return apiErr
	}
}

// List returns every record with its current index.
func (c *Client) List(ctx context.Context) ([]student.Item, error) {
	var items []student.Item
	err := c.req("/api/students", nil).
		ToJSON(&items).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return items, nil
}

// Submit sends the form. created reports whether a record was appended
// rather than an edited one replaced.
func (c *Client) Submit(ctx context.Context, in validate.Input) (item student.Item, created bool, err error) {
	var status int
	err = c.req("/api/students", &status).
		Post().
		BodyJSON(in).
		ToJSON(&item).
		Fetch(ctx)
	if err != nil {
		return student.Item{}, false, fmt.Errorf("submit student: %w", err)
	}
	return item, status == http.StatusCreated, nil
}

// Edit starts editing the record at index and returns its values.
func (c *Client) Edit(ctx context.Context, index int) (student.Item, error) {
	var item student.Item
	err := c.req("/api/students/"+strconv.Itoa(index)+"/edit", nil).
		Post().
		ToJSON(&item).
		Fetch(ctx)
	if err != nil {
		return student.Item{}, fmt.Errorf("edit student %d: %w", index, err)
	}
	return item, nil
}

// Delete removes the record at index.
func (c *Client) Delete(ctx context.Context, index int) (student.Deleted, error) {
	var out student.Deleted
	err := c.req("/api/students/"+strconv.Itoa(index), nil).
		Method(http.MethodDelete).
		ToJSON(&out).
		Fetch(ctx)
	if err != nil {
		return student.Deleted{}, fmt.Errorf("delete student %d: %w", index, err)
	}
	return out, nil
}

// State returns the editor state.
func (c *Client) State(ctx context.Context) (student.EditorState, error) {
	var st student.EditorState
	err := c.req("/api/editor", nil).
		ToJSON(&st).
		Fetch(ctx)
	if err != nil {
		return student.EditorState{}, fmt.Errorf("editor state: %w", err)
	}
	return st, nil
}

// Cancel abandons an edit in progress.
func (c *Client) Cancel(ctx context.Context) error {
	err := c.req("/api/editor", nil).
		Method(http.MethodDelete).
		Fetch(ctx)
	if err != nil {
		return fmt.Errorf("cancel edit: %w", err)
	}
	return nil
}

// Reload makes the server re-read its backing store.
func (c *Client) Reload(ctx context.Context) (student.LoadResult, error) {
	var out student.LoadResult
	err := c.req("/api/students/load", nil).
		Post().
		ToJSON(&out).
		Fetch(ctx)
	if err != nil {
		return student.LoadResult{}, fmt.Errorf("reload: %w", err)
	}
	return out, nil
}
