package cms

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches a lookup.
	ErrNotFound = errors.New("cms: document not found")
	// ErrInvalidCursor is returned when a cursor does not belong to the source.
	ErrInvalidCursor = errors.New("cms: invalid cursor")
)

// FetchError reports a failed page fetch. The pagination state that
// requested the page is left untouched, so the fetch may be retried.
type FetchError struct {
	Cursor string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cms: fetch %q: status %d: %v", e.Cursor, e.Status, e.Err)
	}
	return fmt.Sprintf("cms: fetch %q: %v", e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same fetch may succeed.
func (e *FetchError) Temporary() bool {
	if errors.Is(e.Err, ErrInvalidCursor) {
		return false
	}
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}

// MalformedRecordError reports a document missing a structured field the
// detail page cannot render without.
type MalformedRecordError struct {
	UID   string
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("cms: document %q is missing field %q", e.UID, e.Field)
}

// AsFetchError wraps err in a FetchError unless it already is one.
func AsFetchError(cursor string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Cursor: cursor, Err: err}
}
