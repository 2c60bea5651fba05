package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingQuery         = NewDomainError(ErrCodeValidation, "query is required")
	ErrMissingSessionID     = NewDomainError(ErrCodeValidation, "sessionId is required")
	ErrNoMediaUploaded      = NewDomainError(ErrCodeValidation, "No image or video uploaded")
	ErrMissingKnowledgeRef  = NewDomainError(ErrCodeValidation, "knowledgeBaseRef is required.")
	ErrMissingCuratedAnswer = NewDomainError(ErrCodeValidation, "response is required and should be a non-empty string.")
)

// Not found errors
var (
	ErrEntryNotFound = NewDomainError(ErrCodeNotFound, "No knowledge base entry found to update for the given reference.")
	ErrNoQuestions   = NewDomainError(ErrCodeNotFound, "No unanswered questions found for the given knowledge base reference.")
)

// Upstream errors
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeUpstream, "answer provider request failed")
)
