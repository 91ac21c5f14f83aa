// Package client calls a remote surge API server.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"surge/internal/job"
	"surge/internal/logging"
	"surge/internal/sink"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

type Client struct {
	client  *resty.Client
	baseURL string
}

// restyLogger routes resty's internal logging through the logging package.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) { logging.Error(format, v...) }
func (restyLogger) Warnf(format string, v ...any)  { logging.Warn(format, v...) }
func (restyLogger) Debugf(format string, v ...any) { logging.Debug(format, v...) }

// New creates a client for baseURL. Uploads block until the remote run
// finishes, so timeout should cover a whole run; 0 disables it.
func New(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := resty.New()
	c.SetLogger(restyLogger{})

	c.
		SetTimeout(timeout).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "surge-client")

	// Retry only connection failures; a POST that reached the server may
	// already have written objects.
	c.
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil && (r == nil || r.RawResponse == nil)
		})

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logging.Debug("Making API request: %s %s", req.Method, req.URL)
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logging.Debug("API response: %d (took %v)", resp.StatusCode(), resp.Time())
		return nil
	})

	return &Client{client: c, baseURL: baseURL}
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		Post(path)
	if err != nil {
		return fmt.Errorf("failed to connect to API server at %s: %w", c.baseURL, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// Upload runs an adaptive upload on the server.
func (c *Client) Upload(ctx context.Context, req job.Request) (*job.Result, error) {
	var res job.Result
	if err := c.post(ctx, "/upload-adaptive", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) List(ctx context.Context, prefix string) ([]sink.Item, error) {
	var res struct {
		Items []sink.Item `json:"items"`
	}
	if err := c.post(ctx, "/list", map[string]string{"prefix": prefix}, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *Client) DeleteAll(ctx context.Context, prefix string) (int, error) {
	var res struct {
		Deleted int `json:"deleted"`
	}
	if err := c.post(ctx, "/delete-all", map[string]string{"prefix": prefix}, &res); err != nil {
		return 0, err
	}
	return res.Deleted, nil
}
