package domain

import (
	"errors"
	"fmt"
)

// Code identifies a relay failure in a machine-readable way. The web app
// branches on codes, never on message text.
type Code string

const (
	CodeProviderBaseURLMissing Code = "PROVIDER_BASE_URL_MISSING"

	CodeVideoModelInvalid          Code = "OPENAI_VIDEO_MODEL_INVALID"
	CodeVideoDurationUnsupported   Code = "OPENAI_VIDEO_DURATION_UNSUPPORTED"
	CodeVideoSizeUnsupported       Code = "OPENAI_VIDEO_SIZE_UNSUPPORTED"
	CodeVideoSizeConflict          Code = "OPENAI_VIDEO_SIZE_CONFLICT"
	CodeVideoOptionUnsupported     Code = "OPENAI_VIDEO_OPTION_UNSUPPORTED"
	CodeVideoPromptRequired        Code = "OPENAI_VIDEO_PROMPT_REQUIRED"
	CodeVideoInputReferenceInvalid Code = "OPENAI_VIDEO_INPUT_REFERENCE_INVALID"
	CodeVideoCreateInvalidResponse Code = "OPENAI_VIDEO_CREATE_INVALID_RESPONSE"
	CodeVideoTaskIDInvalid         Code = "OPENAI_VIDEO_TASK_ID_INVALID"

	CodeUpstreamError Code = "RELAY_UPSTREAM_ERROR"
	CodeStepFailed    Code = "RELAY_STEP_FAILED"
)

// Error pairs a stable code with a human-readable detail. Adapter packages
// return *Error for every contract violation so callers can branch on Code
// without parsing messages.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a coded error with a formatted detail message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code to an underlying error while keeping the cause
// reachable through errors.Unwrap.
func WrapError(code Code, err error, detail string) *Error {
	return &Error{Code: code, Message: detail, Err: err}
}

// Normalize funnels any failure into the coded error shape. Coded errors pass
// through unchanged; everything else becomes RELAY_UPSTREAM_ERROR so callers
// always observe a single error contract.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	return &Error{Code: CodeUpstreamError, Message: err.Error(), Err: err}
}

// CodeOf extracts the machine-readable code from err, defaulting to
// RELAY_UPSTREAM_ERROR for uncoded failures.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUpstreamError
}
