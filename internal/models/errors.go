package models

import (
	"errors"
	"fmt"
)

// Error is a typed pipeline error. Two Errors match under errors.Is when their codes match,
// so a wrapped error built with Wrap still satisfies errors.Is(err, ErrFileNotFound).
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates an Error with no cause.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap returns a new Error with kind's code, the formatted message, and cause err.
func Wrap(kind *Error, err error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    kind.Code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Error codes.
const (
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeDocumentParse      = "DOCUMENT_PARSE"
	CodeEmbeddingProvider  = "EMBEDDING_PROVIDER"
	CodeIndexBuild         = "INDEX_BUILD"
	CodeIndexLoad          = "INDEX_LOAD"
	CodeGenerationProvider = "GENERATION_PROVIDER"
	CodeConfiguration      = "CONFIGURATION"
	CodeProviderMismatch   = "PROVIDER_MISMATCH"
	CodeDimensionMismatch  = "DIMENSION_MISMATCH"
	CodeEmptyQuestion      = "EMPTY_QUESTION"
)

// Ingestion errors. These are fatal: no valid index can exist without a successful ingest.
var (
	ErrFileNotFound      = NewError(CodeFileNotFound, "source document not found")
	ErrUnsupportedFormat = NewError(CodeUnsupportedFormat, "unsupported document format")
	ErrDocumentParse     = NewError(CodeDocumentParse, "failed to parse document")
	ErrIndexBuild        = NewError(CodeIndexBuild, "failed to build index")
	ErrIndexLoad         = NewError(CodeIndexLoad, "failed to load index")
	ErrConfiguration     = NewError(CodeConfiguration, "invalid configuration")
)

// Provider errors.
var (
	ErrEmbeddingProvider  = NewError(CodeEmbeddingProvider, "embedding provider failed")
	ErrGenerationProvider = NewError(CodeGenerationProvider, "language model provider failed")
)

// Index consistency errors.
var (
	ErrProviderMismatch  = NewError(CodeProviderMismatch, "embedding space differs from the index")
	ErrDimensionMismatch = NewError(CodeDimensionMismatch, "vector dimension mismatch")
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = NewError(CodeEmptyQuestion, "question is empty")

// IsFatal reports whether err belongs to the ingestion phase and should terminate the process.
func IsFatal(err error) bool {
	for _, kind := range []*Error{
		ErrFileNotFound, ErrUnsupportedFormat, ErrDocumentParse, ErrIndexBuild,
		ErrIndexLoad, ErrConfiguration, ErrProviderMismatch,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
