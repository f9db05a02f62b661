package client

import (
	"fmt"
	"strings"
)

// Method is an HTTP verb a [Resource] may be issued with.
type Method string

const (
	MethodDelete Method = "DELETE"
	MethodGet    Method = "GET"
	MethodPatch  Method = "PATCH"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
)

// Methods lists every supported verb.
func Methods() []Method {
	return []Method{MethodDelete, MethodGet, MethodPatch, MethodPost, MethodPut}
}

func (m Method) String() string {
	return string(m)
}

// Valid reports whether m is exactly one of the supported verbs.
func (m Method) Valid() bool {
	switch m {
	case MethodDelete, MethodGet, MethodPatch, MethodPost, MethodPut:
		return true
	}
	return false
}

// ParseMethod returns the Method named by s, ignoring case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}
