// Package types holds small value types shared across the engine's
// packages.
package types

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a UUID-backed identifier for workflows and runs.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates s as a UUID and returns it in canonical form.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("id must not be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID(parsed.String()), nil
}

// Validate reports whether the ID holds a well-formed UUID.
func (id ID) Validate() error {
	_, err := ParseID(string(id))
	return err
}

// String returns the full identifier.
func (id ID) String() string { return string(id) }

// Short returns the first UUID group, enough to tell runs apart in
// log lines without the full 36 characters.
func (id ID) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }
