// Package client talks to the langchat backend over HTTP.
//
// Health and Chat return the backend's JSON unmodified. ChatStream consumes
// the event stream through pkg/sse and returns the accumulated reply text.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/langchat/pkg/sse"
)

const (
	healthPath     = "/health"
	chatPath       = "/chat"
	chatStreamPath = "/chat/stream"

	// maxErrorBody caps how much of a failed response is kept on a TransportError.
	maxErrorBody = 64 * 1024
)

// Config configures a Client.
type Config struct {
	// Target is the scheme + host + port of the backend (e.g. "http://localhost:8080").
	Target string

	// BasePath is joined onto Target to form the API base URL. An absolute
	// URL replaces Target entirely.
	BasePath string

	// Timeout bounds a whole request, including reading a stream. Zero means
	// no timeout. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the client used for every request.
	HTTPClient *http.Client
}

// Client is a langchat backend client. It is safe for concurrent use; every
// call builds its own request and, for streams, its own decoder.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client from config.
func New(config Config, logger *slog.Logger) (*Client, error) {
	baseURL, err := ResolveBaseURL(config.Target, config.BasePath)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			// Chat replies can be slow
			Timeout: config.Timeout,
		}
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// BaseURL returns the resolved API base URL, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolveBaseURL joins target and basePath into the API base URL.
// If basePath is itself an absolute URL it is used as is.
func ResolveBaseURL(target, basePath string) (string, error) {
	if u, err := url.Parse(basePath); err == nil && u.Scheme != "" && u.Host != "" {
		return strings.TrimRight(basePath, "/"), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parsing target %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("target %q must be an absolute URL", target)
	}

	base := strings.TrimRight(target, "/")
	if p := strings.Trim(basePath, "/"); p != "" {
		base += "/" + p
	}

	return base, nil
}

// Health fetches the backend health report.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, healthPath, nil, "application/json")
	if err != nil {
		return nil, err
	}

	return readJSON(resp)
}

// Chat sends one message and waits for the complete reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, chatPath, body, "application/json")
	if err != nil {
		return nil, err
	}

	return readJSON(resp)
}

// ChatStream sends one message and consumes the streamed reply, dispatching
// every event to callbacks as it arrives. It returns the concatenated data
// payloads once the stream ends or is exhausted.
//
// A non-2xx status returns a *TransportError before any callback fires.
// A server "error" event only reaches callbacks.OnError. If reading fails
// mid-stream, the text received so far is returned with the error.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, callbacks sse.Callbacks, opts ...sse.Option) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, chatStreamPath, body, "text/event-stream")
	if err != nil {
		return "", err
	}

	decoderOpts := append([]sse.Option{sse.WithLogger(c.logger)}, opts...)
	text, err := sse.Decode(ctx, resp.Body, callbacks, decoderOpts...)
	if err != nil {
		c.logger.Debug("stream aborted",
			"url", resp.Request.URL.String(),
			"received", len(text),
			"error", err,
		)
		return text, err
	}

	return text, nil
}

// do sends a request and returns the response once its status is known to be
// 2xx. On any other status the body is drained, closed and returned as a
// *TransportError.
func (c *Client) do(ctx context.Context, method, path string, body []byte, accept string) (*http.Response, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", accept)

	c.logger.Debug("sending request",
		"method", method,
		"url", endpoint,
		"body_bytes", len(body),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request to %s: %w", endpoint, err)
	}

	c.logger.Debug("received response",
		"method", method,
		"url", endpoint,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			c.logger.Debug("reading error body", "error", readErr)
		}

		return nil, &TransportError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	return resp, nil
}

// readJSON reads and closes a successful response body, checking it is JSON.
func readJSON(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if !json.Valid(data) {
		return nil, errors.New("response is not valid JSON")
	}

	return json.RawMessage(data), nil
}
