// Package errors provides error types and exit-code mapping for cgmetrics.
// Every failure class carries its own type so the entry point can report a
// distinct exit code per class, and enough context to diagnose a dead or
// misbehaving daemon from the munin-node log alone.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes reported to munin-node. Munin itself only checks for zero, but
// wrapper scripts rely on the split to tell a dead daemon from garbage output.
const (
	ExitOK             = 0
	ExitInternal       = 1
	ExitUsage          = 2
	ExitConnection     = 3
	ExitParse          = 4
	ExitClassification = 5
)

// Error constants for common failure conditions.
var (
	ErrEmptyResponse = errors.New("empty response from daemon")
)

// ConnectionError represents a failed socket operation against the daemon.
type ConnectionError struct {
	Addr       string
	Op         string
	Underlying error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("daemon %s: %s failed: %v", e.Addr, e.Op, e.Underlying)
}

func (e ConnectionError) Unwrap() error {
	return e.Underlying
}

// ParseError represents a daemon reply that could not be decoded.
type ParseError struct {
	Addr       string
	Reason     string
	Underlying error
}

func (e ParseError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("daemon %s reply: %s: %v", e.Addr, e.Reason, e.Underlying)
	}
	return fmt.Sprintf("daemon %s reply: %s", e.Addr, e.Reason)
}

func (e ParseError) Unwrap() error {
	return e.Underlying
}

// UnknownDeviceError represents a device record that matched no registered
// type tag, or more than one. Either way the record cannot be classified and
// the whole render is abandoned rather than under-reporting the rig.
type UnknownDeviceError struct {
	Keys    []string
	Matches []string
}

func (e UnknownDeviceError) Error() string {
	if len(e.Matches) > 1 {
		return fmt.Sprintf("device record matches multiple type tags: %s", strings.Join(e.Matches, ", "))
	}
	return fmt.Sprintf("device record matches no registered type tag (keys: %s)", strings.Join(e.Keys, ", "))
}

// SchemaError represents a classified record missing a required field or
// carrying a value of the wrong type.
type SchemaError struct {
	Tag    string
	Field  string
	Reason string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("%s record field %q: %s", e.Tag, e.Field, e.Reason)
}

// ConfigurationError represents an error in configuration validation.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in field %s (value: %s): %s", e.Field, e.Value, e.Reason)
}

// ExitCode maps an error onto the plugin's exit-code table. A nil error maps
// to ExitOK; anything unrecognized maps to ExitInternal.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		connErr    ConnectionError
		parseErr   ParseError
		unknownErr UnknownDeviceError
		schemaErr  SchemaError
		configErr  ConfigurationError
	)

	switch {
	case errors.As(err, &connErr):
		return ExitConnection
	case errors.As(err, &parseErr), errors.Is(err, ErrEmptyResponse):
		return ExitParse
	case errors.As(err, &unknownErr), errors.As(err, &schemaErr):
		return ExitClassification
	case errors.As(err, &configErr):
		return ExitUsage
	default:
		return ExitInternal
	}
}
