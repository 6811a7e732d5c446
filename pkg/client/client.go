package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kode4food/runq/pkg/api"
)

// Client calls the admin API of one daemon
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var (
	ErrHealth         = errors.New("failed to get health")
	ErrListQueues     = errors.New("failed to list queues")
	ErrGetQueue       = errors.New("failed to get queue")
	ErrStopQueue      = errors.New("failed to stop queue")
	ErrListDeferred   = errors.New("failed to list deferred runs")
	ErrCancelDeferred = errors.New("failed to cancel deferred run")
	ErrRunScript      = errors.New("failed to run script")
	ErrNotFound       = errors.New("not found")
)

const (
	DefaultURL     = "http://localhost:8080"
	DefaultTimeout = 10 * time.Second

	routeHealth   = "/health"
	routeQueues   = "/queues"
	routeDeferred = "/deferred"
	routeScripts  = "/scripts"
)

// NewClient creates a client for the daemon listening at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var res api.HealthResponse
	err := c.call(ctx, "GET", c.url(routeHealth), nil, http.StatusOK, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHealth, err)
	}
	return &res, nil
}

func (c *Client) ListQueues(
	ctx context.Context,
) (*api.QueuesListResponse, error) {
	var res api.QueuesListResponse
	err := c.call(ctx, "GET", c.url(routeQueues), nil, http.StatusOK, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListQueues, err)
	}
	return &res, nil
}

func (c *Client) GetQueue(
	ctx context.Context, id api.QueueID,
) (*api.QueueInfo, error) {
	var res api.QueueInfo
	err := c.call(ctx, "GET", c.url(routeQueues, string(id)), nil,
		http.StatusOK, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGetQueue, err)
	}
	return &res, nil
}

func (c *Client) StopQueue(ctx context.Context, id api.QueueID) error {
	err := c.call(ctx, "POST", c.url(routeQueues, string(id), "stop"), nil,
		http.StatusOK, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStopQueue, err)
	}
	return nil
}

func (c *Client) ListDeferred(
	ctx context.Context,
) (*api.DeferredListResponse, error) {
	var res api.DeferredListResponse
	err := c.call(ctx, "GET", c.url(routeDeferred), nil, http.StatusOK, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListDeferred, err)
	}
	return &res, nil
}

func (c *Client) CancelDeferred(ctx context.Context, id string) error {
	err := c.call(ctx, "DELETE", c.url(routeDeferred, id), nil,
		http.StatusOK, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCancelDeferred, err)
	}
	return nil
}

// RunScript starts the named script on the daemon and returns the new
// queue as it stood right after its first run
func (c *Client) RunScript(
	ctx context.Context, name string, req api.RunScriptRequest,
) (*api.QueueInfo, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var res api.QueueStartedResponse
	err = c.call(ctx, "POST", c.url(routeScripts, name, "run"), data,
		http.StatusCreated, &res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunScript, err)
	}
	return &res.Queue, nil
}

func (c *Client) call(
	ctx context.Context, method, target string, body []byte, expect int,
	out any,
) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != expect {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var res api.ErrorResponse
	msg := string(body)
	if json.Unmarshal(body, &res) == nil && res.Error != "" {
		msg = res.Error
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
}

func (c *Client) url(route string, parts ...string) string {
	res := c.baseURL + route
	for _, p := range parts {
		res += "/" + url.PathEscape(p)
	}
	return res
}
