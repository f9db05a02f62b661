package client

import (
	jsoniter "github.com/json-iterator/go"
)

// Decoder turns response bytes into a typed value. A single Decoder is
// shared by every fetch a [Client] performs. jsoniter.API satisfies it.
type Decoder interface {
	Unmarshal(data []byte, v any) error
}

// DecoderOption configures the JSON decoder built by [NewDecoder].
type DecoderOption func(*jsoniter.Config)

// WithUseNumber decodes numbers held in interfaces as json.Number
// instead of float64, preserving precision.
func WithUseNumber() DecoderOption {
	return func(c *jsoniter.Config) {
		c.UseNumber = true
	}
}

// WithDisallowUnknownFields fails decoding when an object carries a key
// with no matching destination field.
func WithDisallowUnknownFields() DecoderOption {
	return func(c *jsoniter.Config) {
		c.DisallowUnknownFields = true
	}
}

// WithTagKey maps object keys to struct fields using the named struct
// tag instead of `json`.
func WithTagKey(key string) DecoderOption {
	return func(c *jsoniter.Config) {
		c.TagKey = key
	}
}

// WithCaseSensitive requires object keys to match field names exactly.
func WithCaseSensitive() DecoderOption {
	return func(c *jsoniter.Config) {
		c.CaseSensitive = true
	}
}

// NewDecoder returns a JSON decoder that behaves like encoding/json,
// adjusted by opts.
func NewDecoder(opts ...DecoderOption) Decoder {
	if len(opts) == 0 {
		return jsoniter.ConfigCompatibleWithStandardLibrary
	}

	cfg := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg.Froze()
}
