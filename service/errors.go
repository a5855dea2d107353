package service

import (
	"errors"
	"fmt"
)

// Store sentinel errors
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrDuplicateJob = errors.New("job already exists")
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindExtractionFailed  ErrorKind = "extraction_failed"
	KindOCRService        ErrorKind = "ocr_service"
	KindGenerationService ErrorKind = "generation_service"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// Error is a classified pipeline error. The message it renders is what gets
// recorded on a failed job.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func UnsupportedFormatError(message string) *Error {
	return &Error{Kind: KindUnsupportedFormat, Message: message}
}

func ExtractionError(message string, err error) *Error {
	return &Error{Kind: KindExtractionFailed, Message: message, Err: err}
}

func OCRError(message string, err error) *Error {
	return &Error{Kind: KindOCRService, Message: message, Err: err}
}

func GenerationError(message string, err error) *Error {
	return &Error{Kind: KindGenerationService, Message: message, Err: err}
}

func MalformedResponseError(message string) *Error {
	return &Error{Kind: KindMalformedResponse, Message: message}
}

// IsKind reports whether err carries the given classification
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
