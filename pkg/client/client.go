package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client provides HTTP client functionality to communicate with a
// scriptforge daemon started with 'scriptforge serve'.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:8080/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new scriptforge API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8080/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the daemon is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/scripts", nil)
	if err != nil {
		c.logger.Debug("failed to create request for reachability check", "error", err)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	isReachable := resp.StatusCode != http.StatusNotFound
	c.logger.Debug("daemon reachability check", "reachable", isReachable, "status", resp.StatusCode)
	return isReachable
}

// Process submits a free-text command. The daemon re-executes a matching
// cataloged script or generates and launches a new one.
func (c *Client) Process(ctx context.Context, command, description string) (Result, error) {
	c.logger.Debug("processing command", "command", command)
	data, err := json.Marshal(commandRequest{Command: command, Description: description})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}
	return c.doResult(ctx, http.MethodPost, c.baseURL+"/commands", data)
}

// Generate creates a script from a free-text command without launching it.
func (c *Client) Generate(ctx context.Context, command, description string) (Result, error) {
	c.logger.Debug("generating script", "command", command)
	data, err := json.Marshal(commandRequest{Command: command, Description: description})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}
	return c.doResult(ctx, http.MethodPost, c.baseURL+"/scripts", data)
}

// Execute launches an already cataloged script by name.
func (c *Client) Execute(ctx context.Context, name string) (Result, error) {
	c.logger.Debug("executing script", "name", name)
	u := fmt.Sprintf("%s/scripts/%s/execute", c.baseURL, url.PathEscape(name))
	return c.doResult(ctx, http.MethodPost, u, nil)
}

// Stop force-stops a tracked running script by name.
func (c *Client) Stop(ctx context.Context, name string) (Result, error) {
	c.logger.Debug("stopping script", "name", name)
	u := fmt.Sprintf("%s/scripts/%s/stop", c.baseURL, url.PathEscape(name))
	return c.doResult(ctx, http.MethodPost, u, nil)
}

// List returns the catalog entries whose script file still exists.
func (c *Client) List(ctx context.Context) ([]ScriptInfo, error) {
	var out struct {
		Scripts []ScriptInfo `json:"scripts"`
	}
	if err := c.requestJSON(ctx, http.MethodGet, c.baseURL+"/scripts", nil, &out); err != nil {
		return nil, err
	}
	return out.Scripts, nil
}

// Find returns the first catalog entry matching query by name or
// description substring.
func (c *Client) Find(ctx context.Context, query string) (ScriptInfo, error) {
	var out ScriptInfo
	u := c.baseURL + "/scripts/find?q=" + url.QueryEscape(query)
	if err := c.requestJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return ScriptInfo{}, err
	}
	return out, nil
}

// Running reports the tracked running scripts, with usage samples when
// withUsage is set.
func (c *Client) Running(ctx context.Context, withUsage bool) (RunningInfo, error) {
	u := c.baseURL + "/running"
	if withUsage {
		u += "?usage=1"
	}
	var out RunningInfo
	if err := c.requestJSON(ctx, http.MethodGet, u, nil, &out); err != nil {
		return RunningInfo{}, err
	}
	return out, nil
}

// Prune removes catalog entries whose script file is gone and returns
// the removed names.
func (c *Client) Prune(ctx context.Context) ([]string, error) {
	var out struct {
		Removed []string `json:"removed"`
	}
	if err := c.requestJSON(ctx, http.MethodPost, c.baseURL+"/scripts/prune", nil, &out); err != nil {
		return nil, err
	}
	return out.Removed, nil
}

// Reconcile runs one reconciliation pass on the daemon now.
func (c *Client) Reconcile(ctx context.Context) error {
	var out struct {
		OK bool `json:"ok"`
	}
	return c.requestJSON(ctx, http.MethodPost, c.baseURL+"/reconcile", nil, &out)
}

type commandRequest struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// doResult performs a request against an endpoint that answers with a
// Result record. Failed operations come back as 400 with a populated
// record, so both 200 and 400 decode into a Result.
func (c *Client) doResult(ctx context.Context, method, url string, body []byte) (Result, error) {
	resp, err := c.do(ctx, method, url, body)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusBadRequest:
		var res Result
		if err := json.Unmarshal(data, &res); err != nil {
			return Result{}, fmt.Errorf("decode result: %w", err)
		}
		if res.Message == "" && res.Action == "" {
			// Error envelope, not a result record.
			return Result{}, c.apiError(resp.StatusCode, data)
		}
		return res, nil
	default:
		return Result{}, c.apiError(resp.StatusCode, data)
	}
}

// requestJSON performs a request and decodes a 200 body into out.
func (c *Client) requestJSON(ctx context.Context, method, url string, body []byte, out any) error {
	resp, err := c.do(ctx, method, url, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return c.apiError(resp.StatusCode, data)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", url)
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}

func (c *Client) apiError(status int, data []byte) error {
	var er ErrorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error != "" {
		c.logger.Debug("API request failed", "error", er.Error, "status", status)
		return fmt.Errorf("API error: %s", er.Error)
	}
	return fmt.Errorf("HTTP %d", status)
}
