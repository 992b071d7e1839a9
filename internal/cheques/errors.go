package cheques

import (
	"errors"
	"fmt"
)

// Stage names the pipeline stage where a run-level failure occurred.
type Stage string

const (
	StageExtraction    Stage = "extraction"
	StageNormalization Stage = "normalization"
	StageValidation    Stage = "validation"
	StageAssembly      Stage = "assembly"
)

// Run-level failure reasons surfaced through StageError.
var (
	ErrNoRecordsDetected = errors.New("no cheque records detected")
)

// StageError is the single structured failure a run surfaces: which stage
// failed and why. Per-record problems never become a StageError; they degrade
// or exclude the individual record instead.
type StageError struct {
	Stage  Stage
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pipeline failed at %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("pipeline failed at %s: %s", e.Stage, e.Reason)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func failedAt(stage Stage, reason string, err error) *StageError {
	return &StageError{Stage: stage, Reason: reason, Err: err}
}
