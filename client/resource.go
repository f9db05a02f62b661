package client

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"

	"github.com/adamwoolhether/apiclient/client/multipart"
	jsoniter "github.com/json-iterator/go"
)

// Resource describes one call to an endpoint whose response decodes
// into T. Values are immutable; build them with [NewResource].
type Resource[T any] struct {
	path          string
	keyPath       string
	method        Method
	headers       http.Header
	body          []byte
	strictKeyPath bool
	expectStatus  []int
}

// NewResource describes a request for path, which is resolved against the
// environment's base URL at fetch time. Without options the request is a
// GET with no headers and no body.
func NewResource[T any](path string, optFns ...ResourceOption) (Resource[T], error) {
	opts := resourceOpts{
		method:  MethodGet,
		headers: make(http.Header),
	}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return Resource[T]{}, fmt.Errorf("applying resource option: %w", err)
		}
	}

	return Resource[T]{
		path:          path,
		keyPath:       opts.keyPath,
		method:        opts.method,
		headers:       opts.headers,
		body:          opts.body,
		strictKeyPath: opts.strictKeyPath,
		expectStatus:  opts.expectStatus,
	}, nil
}

// MustResource is like [NewResource] but panics on error. It simplifies
// declaring resources as package-level variables.
func MustResource[T any](path string, optFns ...ResourceOption) Resource[T] {
	r, err := NewResource[T](path, optFns...)
	if err != nil {
		panic(err)
	}
	return r
}

// Path returns the path resolved against the environment's base URL.
func (r Resource[T]) Path() string {
	return r.path
}

// KeyPath returns the dot-delimited path the response is narrowed to,
// or "" when the whole response is decoded.
func (r Resource[T]) KeyPath() string {
	return r.keyPath
}

// Method returns the request verb, GET when unset.
func (r Resource[T]) Method() Method {
	if r.method == "" {
		return MethodGet
	}
	return r.method
}

// Headers returns a copy of the request headers.
func (r Resource[T]) Headers() http.Header {
	if r.headers == nil {
		return make(http.Header)
	}
	return r.headers.Clone()
}

// Body returns a copy of the request body, nil when absent.
func (r Resource[T]) Body() []byte {
	return slices.Clone(r.body)
}

// /////////////////////////////////////////////////////////////////

// ResourceOption is a functional option for [NewResource].
type ResourceOption func(*resourceOpts) error

type resourceOpts struct {
	keyPath       string
	method        Method
	headers       http.Header
	body          []byte
	strictKeyPath bool
	expectStatus  []int
}

// WithKeyPath narrows the response to the value at the dot-delimited
// keyPath (e.g. "data.items") before decoding. When the response is not a
// JSON object or the path is absent the full response is decoded.
func WithKeyPath(keyPath string) ResourceOption {
	return func(opts *resourceOpts) error {
		opts.keyPath = keyPath
		return nil
	}
}

// WithStrictKeyPath makes a key path that does not resolve an
// [ErrKeyPathNotFound] failure instead of falling back to the full response.
func WithStrictKeyPath() ResourceOption {
	return func(opts *resourceOpts) error {
		opts.strictKeyPath = true
		return nil
	}
}

// WithMethod sets the request verb.
func WithMethod(m Method) ResourceOption {
	return func(opts *resourceOpts) error {
		if !m.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidMethod, m)
		}
		opts.method = m
		return nil
	}
}

// WithHeaders sets the given headers, replacing earlier values for the same keys.
func WithHeaders(headers map[string]string) ResourceOption {
	return func(opts *resourceOpts) error {
		for _, k := range slices.Sorted(maps.Keys(headers)) {
			opts.headers.Set(k, headers[k])
		}
		return nil
	}
}

// WithHeader sets a single header.
func WithHeader(key, value string) ResourceOption {
	return func(opts *resourceOpts) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		opts.headers.Set(key, value)
		return nil
	}
}

// WithBody sends body verbatim.
func WithBody(body []byte) ResourceOption {
	return func(opts *resourceOpts) error {
		opts.body = slices.Clone(body)
		return nil
	}
}

// WithJSONBody encodes v as the request body and sets the
// Content-Type header to application/json.
func WithJSONBody(v any) ResourceOption {
	return func(opts *resourceOpts) error {
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding request payload: %w", err)
		}
		opts.body = b
		opts.headers.Set("Content-Type", "application/json")
		return nil
	}
}

// WithMultipart sends the form as the body with its multipart Content-Type.
// The form's current fields are captured; later additions are not seen.
func WithMultipart(form *multipart.Data) ResourceOption {
	return func(opts *resourceOpts) error {
		if form == nil {
			return errors.New("multipart form must not be nil")
		}
		opts.body = form.Bytes()
		opts.headers.Set("Content-Type", form.ContentType())
		return nil
	}
}

// WithExpectStatus makes any response status outside codes an
// [UnexpectedStatusError]. By default status codes are not inspected and a
// response body that decodes is a success whatever its status.
func WithExpectStatus(codes ...int) ResourceOption {
	return func(opts *resourceOpts) error {
		if len(codes) == 0 {
			return errors.New("at least one status code is required")
		}
		for _, c := range codes {
			if c < 100 || c > 599 {
				return fmt.Errorf("invalid status code %d", c)
			}
		}
		opts.expectStatus = slices.Clone(codes)
		return nil
	}
}
