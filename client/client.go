package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/adamwoolhether/apiclient/client"

// Client fetches resources from one [Environment]. It holds no
// per-request state and is safe for concurrent use.
type Client struct {
	env     Environment
	decoder Decoder
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Build creates a Client bound to env. The default decoder is
// [NewDecoder] with no options.
func Build(env Environment, optFns ...Option) (*Client, error) {
	if env.transport == nil || env.baseURL == nil {
		return nil, errors.New("environment must be built with NewEnvironment")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		env:     env,
		decoder: NewDecoder(),
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer(tracerName),
	}

	if opts.decoder != nil {
		client.decoder = opts.decoder
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	return client, nil
}

// Environment returns the environment the client is bound to.
func (c *Client) Environment() Environment {
	return c.env
}

// URL resolves path against the environment's base URL.
func (c *Client) URL(path string) (*url.URL, error) {
	u, err := c.env.baseURL.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q relative to %q: %w", ErrUnsupportedURL, path, c.env.baseURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q relative to %q is not absolute", ErrUnsupportedURL, path, c.env.baseURL)
	}

	return u, nil
}

// Fetch issues the request described by r once and decodes the response
// into T. It performs exactly one network call.
func Fetch[T any](ctx context.Context, c *Client, r Resource[T]) (T, error) {
	var dest T

	data, err := c.fetch(ctx, request{
		path:          r.path,
		keyPath:       r.keyPath,
		method:        r.Method(),
		headers:       r.Headers(),
		body:          r.body,
		strictKeyPath: r.strictKeyPath,
		expectStatus:  r.expectStatus,
	})
	if err != nil {
		return dest, err
	}

	if err := c.decoder.Unmarshal(data, &dest); err != nil {
		return dest, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	return dest, nil
}

// request is the type-erased view of a Resource.
type request struct {
	path          string
	keyPath       string
	method        Method
	headers       http.Header
	body          []byte
	strictKeyPath bool
	expectStatus  []int
}

// fetch runs the request and returns the bytes to decode.
func (c *Client) fetch(ctx context.Context, r request) (data []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "apiclient.fetch", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("apiclient.environment", c.env.name),
		attribute.String("http.request.method", r.method.String()),
		attribute.String("apiclient.path", r.path),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !r.method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, r.method)
	}

	u, err := c.URL(r.path)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("url.full", u.Redacted()))

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method.String(), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrUnsupportedURL, u.Redacted(), err)
	}
	req.Header = r.headers

	c.logger.Debug("fetching resource", "environment", c.env.name, "method", r.method, "url", u.Redacted())

	status, data, err := c.exec(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if len(r.expectStatus) > 0 && !slices.Contains(r.expectStatus, status) {
		return nil, statusError(status, data)
	}

	if r.keyPath != "" {
		narrowed, ok := narrow(data, r.keyPath)
		switch {
		case ok:
			data = narrowed
		case r.strictKeyPath:
			return nil, fmt.Errorf("%w: %q", ErrKeyPathNotFound, r.keyPath)
		default:
			c.logger.Debug("key path not found, decoding full response", "environment", c.env.name, "keyPath", r.keyPath)
		}
	}

	return data, nil
}

// exec issues req through the environment's transport and reads the full body.
func (c *Client) exec(req *http.Request) (int, []byte, error) {
	resp, err := c.env.transport.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}

	return resp.StatusCode, data, nil
}
