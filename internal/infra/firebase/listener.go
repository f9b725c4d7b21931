package firebase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"wattbridge/internal/infra"
)

// streamEvent is the payload of a realtime-database "put" or "patch" frame:
// the path of the change relative to the subscription root, and the new
// value at that path.
type streamEvent struct {
	Path string `json:"path"`
	Data any    `json:"data"`
}

// Listen attaches an event stream to the subtree at path and invokes handler
// for every change until ctx is done. The database replays the current value
// of the subtree as a root-path put on every (re)attach.
//
// A failure before the first successful attach is returned to the caller;
// after that the stream reconnects forever with backoff, since dropped
// streams are routine (token expiry, load balancer churn).
func (c *Client) Listen(ctx context.Context, path string, handler func(path string, data any)) error {
	backoff := infra.DefaultBackoff()
	attachedOnce := false

	for {
		attached, err := c.stream(ctx, path, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attached {
			attachedOnce = true
			backoff.Reset()
		}
		if !attachedOnce {
			return err
		}
		if err := infra.Sleep(ctx, backoff.Next()); err != nil {
			return err
		}
	}
}

func (c *Client) stream(ctx context.Context, path string, handler func(path string, data any)) (attached bool, err error) {
	token, err := c.accessToken()
	if err != nil {
		return false, err
	}

	endpoint := fmt.Sprintf("%s/%s.json?access_token=%s",
		c.databaseURL, strings.Trim(path, "/"), url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("attaching stream %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("attaching stream %s: unexpected status %s", path, resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := dispatch(event, data, handler); err != nil {
				return true, err
			}
			event, data = "", ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return true, fmt.Errorf("stream %s: %w", path, err)
	}
	return true, fmt.Errorf("stream %s: closed by server", path)
}

func dispatch(event, data string, handler func(path string, data any)) error {
	switch event {
	case "put", "patch":
		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			// Partial or garbled frames show up during reconciliation;
			// skip them rather than tearing the stream down.
			return nil
		}
		handler(strings.Trim(ev.Path, "/"), ev.Data)
		return nil
	case "cancel", "auth_revoked":
		return fmt.Errorf("stream terminated by server: %s", event)
	default:
		// keep-alive and unknown frames
		return nil
	}
}
