package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// client is a minimal HTTP client for internal/httpapi's bus surface;
// it carries no retry/backoff logic of its own, matching the teacher's
// own pkg/console.Client shape of "thin wrapper, let the caller decide
// how to handle a failed call".
type client struct {
	baseURL   string
	callerUID uint32
	http      *http.Client
}

func newClient(baseURL string, callerUID uint32) *client {
	return &client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		callerUID: callerUID,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("pkcon: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("pkcon: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Uid", strconv.FormatUint(uint64(c.callerUID), 10))
	return req, nil
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pkcon: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pkcon: %s %s: %s: %s", req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// allocateTID calls POST /transactions and returns the newly allocated
// transaction id.
func (c *client) allocateTID(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/transactions", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		TID string `json:"tid"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.TID, nil
}

// start calls POST /transactions/:tid/start/:role with body.
func (c *client) start(ctx context.Context, tid, role string, body startBody) error {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/transactions/%s/start/%s", tid, role), body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// cancel calls POST /transactions/:tid/cancel.
func (c *client) cancel(ctx context.Context, tid string) error {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/transactions/%s/cancel", tid), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// daemonState calls GET /daemon-state and returns the raw body.
func (c *client) daemonState(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/daemon-state", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		State string `json:"state"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.State, nil
}

// suggestDaemonQuit calls POST /suggest-daemon-quit.
func (c *client) suggestDaemonQuit(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/suggest-daemon-quit", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// signal is one parsed Server-Sent Event off /transactions/:tid/signals.
type signal struct {
	Name string
	Data string
}

// streamSignals connects to GET /transactions/:tid/signals and invokes
// onSignal for every event until the stream reports "Finished" or ctx
// is cancelled.
func (c *client) streamSignals(ctx context.Context, tid string, onSignal func(signal)) error {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/transactions/%s/signals", tid), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pkcon: stream signals: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pkcon: stream signals: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cur signal
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			cur.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			cur.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if cur.Name != "" {
				onSignal(cur)
				if cur.Name == "Finished" {
					return nil
				}
				cur = signal{}
			}
		}
	}
	return scanner.Err()
}
