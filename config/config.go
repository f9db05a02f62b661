// Package config loads named environments from a YAML file.
//
//	environments:
//	  - name: production
//	    base_url: https://api.example.com/v1/
//	    timeout: 10s
//	    user_agent: myapp/1.0
//	    throttle:
//	      rps: 5
//	      burst: 10
//	  - name: staging
//	    base_url: https://staging.example.com/v1/
//	    no_follow_redirects: true
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/internal/validate"
	"gopkg.in/yaml.v3"
)

// ErrEnvironmentNotFound is returned when the file declares no
// environment with the requested name.
var ErrEnvironmentNotFound = errors.New("environment not found")

// File is the parsed configuration.
type File struct {
	Environments []Environment `yaml:"environments" validate:"required,min=1,unique=Name,dive"`
}

// Environment describes one named deployment of the API.
type Environment struct {
	Name              string        `yaml:"name" validate:"required"`
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	UserAgent         string        `yaml:"user_agent"`
	Throttle          *Throttle     `yaml:"throttle"`
	NoFollowRedirects bool          `yaml:"no_follow_redirects"`
}

// Throttle limits the outbound request rate of an environment.
type Throttle struct {
	RPS   int `yaml:"rps" validate:"gt=0"`
	Burst int `yaml:"burst" validate:"gt=0"`
}

// Load parses and validates a configuration. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("unable to parse config: empty document")
		}
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}

	if err := validate.Check(&f); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &f, nil
}

// LoadFile is [Load] for the file at path.
func LoadFile(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer fd.Close()

	return Load(fd)
}

// Names returns the environment names in declaration order.
func (f *File) Names() []string {
	names := make([]string, len(f.Environments))
	for i, env := range f.Environments {
		names[i] = env.Name
	}
	return names
}

// Environment builds the client environment called name. The extra
// options are applied after the ones derived from the file, so a
// caller can supply a transport or logger the file cannot express.
func (f *File) Environment(name string, extra ...client.EnvOption) (client.Environment, error) {
	for _, env := range f.Environments {
		if env.Name == name {
			return env.Build(extra...)
		}
	}

	return client.Environment{}, fmt.Errorf("%w: %q", ErrEnvironmentNotFound, name)
}

// Build converts e into a client.Environment.
func (e Environment) Build(extra ...client.EnvOption) (client.Environment, error) {
	var opts []client.EnvOption
	if e.Timeout > 0 {
		opts = append(opts, client.WithTimeout(e.Timeout))
	}
	if e.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(e.UserAgent))
	}
	if e.Throttle != nil {
		opts = append(opts, client.WithThrottle(e.Throttle.RPS, e.Throttle.Burst))
	}
	if e.NoFollowRedirects {
		opts = append(opts, client.WithNoFollowRedirects())
	}

	env, err := client.NewEnvironment(e.Name, e.BaseURL, append(opts, extra...)...)
	if err != nil {
		return client.Environment{}, fmt.Errorf("environment %q: %w", e.Name, err)
	}

	return env, nil
}
