package complaint

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField  = errors.New("missing field")
	ErrTooManyImages = errors.New("too many images")
)

// ValidationError rejects a submission before any storage is touched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Stage names the pipeline step a submission failed at.
type Stage string

const (
	StageBegin        Stage = "begin"
	StageComplaint    Stage = "complaint"
	StageNotification Stage = "notification"
	StageCommit       Stage = "commit"
)

// SubmitError wraps a storage failure. The transaction has been rolled back
// by the time it is returned.
type SubmitError struct {
	Stage Stage
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }
