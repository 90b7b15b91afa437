package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mediaq/internal/api"
	"mediaq/internal/config"
	"mediaq/internal/events"
	"mediaq/internal/queue"
	"mediaq/internal/worker"
)

// ErrDaemonUnavailable is returned when the daemon cannot be reached.
var ErrDaemonUnavailable = errors.New("mediaq daemon unavailable")

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// Client issues requests against one daemon.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	stream  *http.Client
}

// New returns a client for baseURL ("http://host:port").
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: defaultTimeout},
		stream:  &http.Client{},
	}
}

// FromConfig builds a client for the daemon described by cfg.
func FromConfig(cfg *config.Config) *Client {
	return New(BaseURL(cfg.Paths.APIBind), cfg.Paths.APIToken)
}

// BaseURL turns a listen address into a dialable URL. Wildcard hosts are
// replaced with loopback.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Queue fetches the current queue snapshot.
func (c *Client) Queue(ctx context.Context) (*queue.Snapshot, error) {
	var resp queue.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/queue", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Job fetches one live job by id.
func (c *Client) Job(ctx context.Context, id string) (*queue.Job, error) {
	var resp api.JobResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Add submits URLs for download.
func (c *Client) Add(ctx context.Context, req api.AddRequest) (*api.AddResponse, error) {
	var resp api.AddResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/add", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Action applies a control verb and returns the resulting queue state.
func (c *Client) Action(ctx context.Context, action string) (*api.ActionResponse, error) {
	var resp api.ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue/action", api.ActionRequest{Action: action}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info probes a URL for title and playlist entries.
func (c *Client) Info(ctx context.Context, rawURL string) (*worker.MediaInfo, error) {
	var resp worker.MediaInfo
	if err := c.do(ctx, http.MethodPost, "/api/info", api.InfoRequest{URL: rawURL}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists up to limit finished jobs, newest first. A non-positive
// limit uses the daemon default.
func (c *Client) History(ctx context.Context, limit int) ([]api.HistoryEntry, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Watch follows the event stream, calling fn for every frame. It returns nil
// when ctx ends, and the error from fn when fn fails.
func (c *Client) Watch(ctx context.Context, fn func(events.Frame) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	decoder := events.NewDecoder(resp.Body)
	for {
		frame, err := decoder.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("event stream closed by daemon")
			}
			return fmt.Errorf("read event stream: %w", err)
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w at %s: start it with `mediaq daemon` or mediaqd", ErrDaemonUnavailable, c.baseURL)
	}
	return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
