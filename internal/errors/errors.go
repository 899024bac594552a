// Package errors defines the error taxonomy for the forecasting pipeline.
// Every failure surfaced to the operator carries a stable error code so log
// queries and exit handling do not depend on message wording.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the pipeline stages. These are stable identifiers; do not
// rename without updating the runbooks that grep for them.
const (
	CodeInput       = "INPUT_ERROR"
	CodeDataQuality = "DATA_QUALITY_ERROR"
	CodeModel       = "MODEL_ERROR"
	CodeOutput      = "OUTPUT_ERROR"
)

// PipelineError is a structured error with a stage code and an optional
// wrapped cause. All pipeline errors are fatal; there is no retry path.
type PipelineError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewInputError reports a missing, unreadable, or malformed input file.
func NewInputError(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeInput, Message: message, Err: err}
}

// NewDataQualityError reports a defect detected in the aggregated series,
// such as a calendar-month gap that would misalign lag features.
func NewDataQualityError(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeDataQuality, Message: message, Err: err}
}

// NewModelError reports degenerate model input or a fitting failure.
func NewModelError(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeModel, Message: message, Err: err}
}

// NewOutputError reports a failure writing the export or chart. The writer
// guarantees no partial file is left behind when this is returned.
func NewOutputError(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeOutput, Message: message, Err: err}
}

// CodeOf returns the pipeline error code of err, or "" when err is not a
// PipelineError anywhere in its chain.
func CodeOf(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool { return CodeOf(err) == CodeInput }

// IsDataQuality reports whether err is a data quality error.
func IsDataQuality(err error) bool { return CodeOf(err) == CodeDataQuality }

// IsModel reports whether err is a model error.
func IsModel(err error) bool { return CodeOf(err) == CodeModel }

// IsOutput reports whether err is an output error.
func IsOutput(err error) bool { return CodeOf(err) == CodeOutput }
