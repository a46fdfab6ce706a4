package repositories

import "fmt"

// The gateway's external calls fail in exactly three ways, each carrying
// the original cause. Callers distinguish them with errors.As; none of
// them covers "no speech detected", which is a successful empty result.

// AuthError means OAuth token issuance failed: the endpoint was
// unreachable, timed out, returned a non-2xx status, or produced a
// response without a usable token.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TranscriptionError means the recognition call failed after exhausting
// the single permitted retry, or failed for a non-401 reason. Status is
// the HTTP status when the service answered, 0 for transport failures.
type TranscriptionError struct {
	Status int
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transcription failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// ConversionError means the format transcoder failed or its output
// stream errored. Detail carries the transcoder's own diagnostics.
type ConversionError struct {
	Detail string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("audio conversion failed: %v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("audio conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
