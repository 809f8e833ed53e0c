package service

import "fmt"

// SourceFetchError indicates a page request to the records source failed.
// Any fetch failure aborts the whole run: there is no retry and no partial
// result, so a flaky source can never produce a partial registry.
type SourceFetchError struct {
	Status int
	Body   string
	Err    error
}

func (e *SourceFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("source fetch failed: status %d: %s", e.Status, e.Body)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// MissingRequiredFieldError indicates a record lacks a mandated date field.
// The record is identified by certification ID when one is present.
type MissingRequiredFieldError struct {
	CertificationID string
	Field           string
}

func (e *MissingRequiredFieldError) Error() string {
	id := e.CertificationID
	if id == "" {
		id = "(unknown)"
	}
	return fmt.Sprintf("record %s: missing required field %s", id, e.Field)
}

// MalformedIdentifierError indicates a certification ID that does not match
// the fixed AFGC-####-#### shape.
type MalformedIdentifierError struct {
	Value string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed certification id %q", e.Value)
}
