package uiautomator2

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// Client communicates with a UIAutomator2 server.
// Safe for concurrent use once a session is established.
type Client struct {
	http       *http.Client
	baseURL    string
	socketPath string

	mu        sync.RWMutex
	sessionID string
}

// NewClient creates a client using a forwarded Unix socket.
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var dialer net.Dialer
			return dialer.DialContext(ctx, "unix", socketPath)
		},
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		baseURL:    "http://localhost",
		socketPath: socketPath,
	}
}

// NewClientTCP creates a client using a forwarded TCP port.
func NewClientTCP(port int) *Client {
	return NewClientURL(fmt.Sprintf("http://127.0.0.1:%d", port))
}

// NewClientURL creates a client for a server reachable at baseURL.
func NewClientURL(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool {
	return c.SessionID() != ""
}

// request makes an HTTP request to UIAutomator2.
func (c *Client) request(method, path string, body interface{}) ([]byte, error) {
	start := time.Now()

	var reqBody io.Reader
	var bodyStr string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
		bodyStr = string(data)
		if len(bodyStr) > 100 {
			bodyStr = bodyStr[:100] + "..."
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debugw("uia2 request failed", "method", method, "path", path, "elapsed", elapsed, "err", err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.Debugw("uia2 request", "method", method, "path", path, "elapsed", elapsed, "status", resp.StatusCode, "body", bodyStr)

	if resp.StatusCode >= 400 {
		return nil, parseServerError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// parseServerError turns a W3C error envelope into a ServerError.
func parseServerError(status int, body []byte) error {
	var errResp struct {
		Value ErrorValue `json:"value"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Value.Error != "" {
		return &ServerError{Status: status, Code: errResp.Value.Error, Message: errResp.Value.Message}
	}
	return &ServerError{Status: status, Message: string(body)}
}

// sessionPath returns path with session ID prefix.
func (c *Client) sessionPath(path string) string {
	return fmt.Sprintf("/session/%s%s", c.SessionID(), path)
}

// Status checks if the server is ready.
func (c *Client) Status() (bool, error) {
	data, err := c.request("GET", "/status", nil)
	if err != nil {
		return false, err
	}

	var resp struct {
		Value struct {
			Ready   bool   `json:"ready"`
			Message string `json:"message"`
		} `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, err
	}

	return resp.Value.Ready, nil
}

// CreateSession starts a new automation session.
func (c *Client) CreateSession(caps Capabilities) error {
	data, err := c.request("POST", "/session", SessionRequest{Capabilities: caps})
	if err != nil {
		return err
	}

	var resp struct {
		SessionID string `json:"sessionId"`
		Value     struct {
			SessionID string `json:"sessionId"`
		} `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("parse session response: %w", err)
	}

	id := resp.SessionID
	if id == "" {
		id = resp.Value.SessionID
	}
	if id == "" {
		return fmt.Errorf("no session ID in response")
	}

	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
	return nil
}

// DeleteSession ends the current session.
func (c *Client) DeleteSession() error {
	if !c.HasSession() {
		return nil
	}

	_, err := c.request("DELETE", c.sessionPath(""), nil)
	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()
	return err
}

// Close ends the session.
func (c *Client) Close() error {
	return c.DeleteSession()
}

// SetImplicitWait sets how long the server polls for elements before giving up.
func (c *Client) SetImplicitWait(timeout time.Duration) error {
	if !c.HasSession() {
		return fmt.Errorf("no active session")
	}

	_, err := c.request("POST", c.sessionPath("/timeouts"), map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}

// valueString extracts a string "value" from a response body.
func valueString(data []byte) (string, error) {
	var resp struct {
		Value interface{} `json:"value"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	s, ok := resp.Value.(string)
	if !ok {
		return "", fmt.Errorf("unexpected value type %T", resp.Value)
	}
	return s, nil
}

func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
