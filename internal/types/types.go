// Package types provides core domain types and validation utilities for cgmetrics.
// This package defines the device type tag and munin field name types along
// with their validation logic and error definitions.
package types

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// TypeTag represents a device class as reported by the mining daemon, e.g. "GPU".
type TypeTag string

// FieldName represents a munin data-source identifier, e.g. "gpu_0".
type FieldName string

var (
	// ErrInvalidTypeTag is returned when a device type tag is invalid.
	ErrInvalidTypeTag = errors.New("invalid type tag")
	// ErrInvalidFieldName is returned when a munin field name is invalid.
	ErrInvalidFieldName = errors.New("invalid field name")
	// ErrHostTooLong is returned when a host name exceeds maximum length.
	ErrHostTooLong = errors.New("host too long")
	// ErrInvalidHost is returned when a host name format is invalid.
	ErrInvalidHost = errors.New("invalid host format")

	typeTagRegex = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)
	// Munin rejects data sources whose names fall outside this set.
	fieldNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

const maxTypeTagLength = 16

// NewTypeTag creates a new TypeTag with validation. The daemon reports type
// tags as short upper-case words ("GPU", "PGA"); anything else cannot map to
// a record key.
func NewTypeTag(tag string) (TypeTag, error) {
	if tag == "" {
		return "", fmt.Errorf("type tag cannot be empty")
	}
	if len(tag) > maxTypeTagLength {
		return "", fmt.Errorf("type tag too long: %d characters", len(tag))
	}
	if !typeTagRegex.MatchString(tag) {
		return "", fmt.Errorf("invalid type tag format: %s", tag)
	}
	return TypeTag(tag), nil
}

// IsValid checks if the TypeTag meets validation requirements.
func (t TypeTag) IsValid() bool {
	return len(t) > 0 && len(t) <= maxTypeTagLength && typeTagRegex.MatchString(string(t))
}

func (t TypeTag) String() string {
	return string(t)
}

// FieldPrefix builds the munin data-source name for a device of this type at
// the given index. The same prefix must be used in config and fetch output
// or munin drops the series.
func (t TypeTag) FieldPrefix(ident int) FieldName {
	return FieldName(strings.ToLower(string(t)) + "_" + strconv.Itoa(ident))
}

// NewFieldName creates a new FieldName with validation.
func NewFieldName(name string) (FieldName, error) {
	if name == "" {
		return "", fmt.Errorf("field name cannot be empty")
	}
	if !fieldNameRegex.MatchString(name) {
		return "", fmt.Errorf("invalid field name format: %s", name)
	}
	return FieldName(name), nil
}

// IsValid checks if the FieldName meets validation requirements.
func (f FieldName) IsValid() bool {
	return len(f) > 0 && fieldNameRegex.MatchString(string(f))
}

func (f FieldName) String() string {
	return string(f)
}

// ValidateHost validates that a host is usable as a daemon address. The
// daemon usually lives on the same machine, so loopback and private
// addresses are acceptable.
func ValidateHost(host string) error {
	if len(host) == 0 {
		return fmt.Errorf("host cannot be empty")
	}
	if len(host) > 253 {
		return fmt.Errorf("host too long: %d characters", len(host))
	}

	if ip := net.ParseIP(host); ip != nil {
		return nil
	}

	hostRegex := regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)
	if !hostRegex.MatchString(host) {
		return fmt.Errorf("invalid host format: %s", host)
	}

	return nil
}
