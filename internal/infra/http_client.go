package infra

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/takatori/sparql/errors"
)

// HttpClient wraps an *http.Client with SPARQL protocol request plumbing:
// form-encoded POST bodies, raise-for-status semantics and structured
// request/response logging.
type HttpClient struct {
	Client *http.Client
	logger *slog.Logger
}

// Request describes one protocol request: the endpoint URL, the
// form-encoded body fields and any headers to set.
type Request struct {
	Url     string
	Headers map[string]string
	Form    url.Values
}

// Response is a fully buffered protocol response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StreamResponse exposes the response body as a stream. Close must be
// called to release the underlying connection, also when iteration stops
// early.
type StreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Close releases the underlying connection.
func (s *StreamResponse) Close() error {
	return s.Body.Close()
}

// NewHttpClient creates an HttpClient with its own pooled transport.
func NewHttpClient(timeout time.Duration) *HttpClient {

	dt := http.DefaultTransport
	transport := dt.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = time.Duration(30) * time.Second
	transport.MaxIdleConns = transport.MaxIdleConnsPerHost * 2
	return &HttpClient{
		Client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: slog.Default(),
	}
}

// NewHttpClientWith wraps a caller-supplied *http.Client. The wrapper never
// closes it; lifecycle stays with the caller.
func NewHttpClientWith(client *http.Client) *HttpClient {
	return &HttpClient{
		Client: client,
		logger: slog.Default(),
	}
}

// CloseIdleConnections releases pooled connections held by the transport.
func (c *HttpClient) CloseIdleConnections() {
	c.Client.CloseIdleConnections()
}

// PostForm sends a form-encoded POST request and buffers the response.
// Any non-2xx status is an error; the request is never retried here.
func (c *HttpClient) PostForm(ctx context.Context, req Request) (*Response, error) {
	res, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if err := raiseForStatus(res, req.Url); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, failure.Translate(
			err,
			errors.ErrTransport,
			failure.Field(failure.Message("failed to read response body")),
			failure.Context{
				"url": req.Url,
			},
		)
	}

	c.logResponse(res)
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, nil
}

// PostFormStream sends a form-encoded POST request and hands the response
// body back as a stream. The caller owns the returned StreamResponse and
// must close it.
func (c *HttpClient) PostFormStream(ctx context.Context, req Request) (*StreamResponse, error) {
	res, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := raiseForStatus(res, req.Url); err != nil {
		res.Body.Close()
		return nil, err
	}

	c.logResponse(res)
	return &StreamResponse{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       res.Body,
	}, nil
}

func (c *HttpClient) send(ctx context.Context, req Request) (*http.Response, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Url, strings.NewReader(req.Form.Encode()))
	if err != nil {
		return nil, failure.Translate(
			err,
			errors.ErrTransport,
			failure.Field(failure.Message("failed to create request")),
			failure.Context{
				"url": req.Url,
			},
		)
	}
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range req.Headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}

	c.logger.InfoContext(ctx, "request",
		slog.String("method", http.MethodPost),
		slog.String("url", req.Url),
	)
	c.logger.DebugContext(ctx, "request",
		slog.String("method", http.MethodPost),
		slog.String("url", req.Url),
		slog.String("content", req.Form.Encode()),
		slog.Any("headers", r.Header),
	)

	res, err := c.Client.Do(r)
	if err != nil {
		return nil, failure.Translate(
			err,
			errors.ErrTransport,
			failure.Field(failure.Message("failed to send request")),
			failure.Context{
				"url": req.Url,
			},
		)
	}
	return res, nil
}

func raiseForStatus(res *http.Response, url string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	return failure.New(
		errors.ErrTransport,
		failure.Field(failure.Message("unexpected status code")),
		failure.Context{
			"url":    url,
			"status": res.Status,
		},
	)
}

func (c *HttpClient) logResponse(res *http.Response) {
	c.logger.Info("response",
		slog.Int("status_code", res.StatusCode),
		slog.String("url", res.Request.URL.String()),
	)
	c.logger.Debug("response",
		slog.Int("status_code", res.StatusCode),
		slog.String("status", res.Status),
		slog.String("url", res.Request.URL.String()),
		slog.Any("headers", res.Header),
	)
}
