package editor

import (
	"errors"
	"fmt"
)

// ErrSectionNotFound is returned when an operation targets a section id
// that is absent from the tree. Callers are expected to pass ids of
// sections they know exist, so hitting this usually means a logic error
// upstream.
var ErrSectionNotFound = errors.New("section not found")

// ValidationError reports a local, recoverable validation failure. The
// mutation that produced it has not been applied. Value carries the
// offending number(s) for callers that want to highlight them.
type ValidationError struct {
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// RejectedError carries a backend rejection of a submitted edit log. The
// detail string is meant to be surfaced to the user verbatim; the session
// keeps its edit log so the save can be retried.
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("save rejected (%d): %s", e.Status, e.Detail)
}
