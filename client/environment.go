package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/adamwoolhether/apiclient/client/throttle"
	"github.com/adamwoolhether/apiclient/internal/validate"
)

// Doer performs a single HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Environment binds a name and base URL to the transport used to reach it.
// It is immutable once built by [NewEnvironment].
type Environment struct {
	name      string
	baseURL   *url.URL
	transport Doer
}

// NewEnvironment builds an Environment for the absolute baseURL.
// Unless [WithDoer] or [WithHTTPClient] is given, a new *http.Client is
// created; the http.DefaultClient is never modified.
func NewEnvironment(name, baseURL string, optFns ...EnvOption) (Environment, error) {
	if err := validate.Var("name", name, "required"); err != nil {
		return Environment{}, fmt.Errorf("validating environment: %w", err)
	}
	if err := validate.Var("baseURL", baseURL, "required,url"); err != nil {
		return Environment{}, fmt.Errorf("validating environment: %w", err)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return Environment{}, fmt.Errorf("parsing base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return Environment{}, fmt.Errorf("%w: base url %q is not absolute", ErrUnsupportedURL, baseURL)
	}

	var opts envOptions
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return Environment{}, fmt.Errorf("applying environment option: %w", err)
		}
	}

	env := Environment{
		name:    name,
		baseURL: u,
	}

	if opts.doer != nil {
		env.transport = opts.doer
		return env, nil
	}

	hc, err := opts.httpClient(name)
	if err != nil {
		return Environment{}, err
	}
	env.transport = hc

	return env, nil
}

// Name returns the environment's name.
func (e Environment) Name() string {
	return e.name
}

// BaseURL returns a copy of the URL resource paths are resolved against.
func (e Environment) BaseURL() *url.URL {
	if e.baseURL == nil {
		return nil
	}
	u := *e.baseURL
	if u.User != nil {
		user := *u.User
		u.User = &user
	}
	return &u
}

// Transport returns the collaborator requests are issued through.
func (e Environment) Transport() Doer {
	return e.transport
}

// httpClient assembles the *http.Client from the configured options,
// wrapping the base transport with the user agent and throttle round
// trippers when requested.
func (o envOptions) httpClient(envName string) (*http.Client, error) {
	hc := &http.Client{}
	if o.client != nil {
		cpy := *o.client
		hc = &cpy
	}

	if o.timeout != nil {
		hc.Timeout = *o.timeout
	}

	if o.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case o.rt != nil:
		transport = o.rt
	case o.client != nil && o.client.Transport != nil:
		transport = o.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if o.userAgent != "" {
		transport = userAgent{value: o.userAgent, base: transport}
	}
	if o.throttle != nil {
		logger := o.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger = logger.With("environment", envName)

		rt, err := throttle.NewRoundTripper(*o.throttle, func() *slog.Logger { return logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	hc.Transport = transport

	return hc, nil
}
