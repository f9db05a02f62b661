package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adamwoolhether/apiclient/client/throttle"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	decoder Decoder
	logger  *slog.Logger
	tracer  trace.Tracer
}

// WithDecoder replaces the default JSON decoder used for every resource.
func WithDecoder(d Decoder) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("decoder must not be nil")
		}
		o.decoder = d
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithTracer records a span per fetch attempt on tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// /////////////////////////////////////////////////////////////////

// EnvOption is a functional option for [NewEnvironment].
type EnvOption func(*envOptions) error
type envOptions struct {
	doer              Doer
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
}

// WithDoer uses d as the transport collaborator as-is. All other
// transport options are ignored when it is set.
func WithDoer(d Doer) EnvOption {
	return func(o *envOptions) error {
		if d == nil {
			return errors.New("doer must not be nil")
		}
		o.doer = d
		return nil
	}
}

// WithHTTPClient starts from a copy of hc instead of an empty [http.Client].
func WithHTTPClient(hc *http.Client) EnvOption {
	return func(o *envOptions) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) EnvOption {
	return func(o *envOptions) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		o.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) EnvOption {
	return func(o *envOptions) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) EnvOption {
	return func(o *envOptions) error {
		o.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) EnvOption {
	return func(o *envOptions) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		o.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the transport from following HTTP redirects.
func WithNoFollowRedirects() EnvOption {
	return func(o *envOptions) error {
		o.noFollowRedirects = true
		return nil
	}
}

// WithEnvLogger sets the logger used by transport wrappers such as the throttle.
func WithEnvLogger(logger *slog.Logger) EnvOption {
	return func(o *envOptions) error {
		o.logger = logger
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
