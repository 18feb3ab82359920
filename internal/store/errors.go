package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict matches any unique-constraint violation surfaced by a store.
var ErrConflict = errors.New("conflict")

// ConflictError names the column whose uniqueness was violated.
type ConflictError struct {
	Column string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s", e.Column)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

const uniqueMarker = "UNIQUE constraint failed: "

// asConflict converts a SQLite unique violation into a *ConflictError.
// Other errors are returned unchanged.
func asConflict(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	i := strings.Index(msg, uniqueMarker)
	if i < 0 {
		return err
	}
	rest := msg[i+len(uniqueMarker):]
	if j := strings.IndexAny(rest, " ,"); j >= 0 {
		rest = rest[:j]
	}
	if k := strings.LastIndexByte(rest, '.'); k >= 0 {
		rest = rest[k+1:]
	}
	return &ConflictError{Column: rest}
}

// ConflictColumn returns the violated column if err is a conflict.
func ConflictColumn(err error) (string, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Column, true
	}
	return "", false
}

// PairingCodeColumn is the conflict column reported for a duplicate pairing code.
const PairingCodeColumn = "pairing_code"
