// Package apiclient exposes the client builder.
package apiclient

import (
	"github.com/adamwoolhether/apiclient/client"
)

// NewClient instantiates a new *client.Client bound to env.
// If not specified, the default decoder, logger and a no-op tracer are used.
func NewClient(env client.Environment, opts ...client.Option) (*client.Client, error) {
	return client.Build(env, opts...)
}
