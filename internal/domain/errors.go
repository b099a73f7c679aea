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
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeProvisioning  = "PROVISIONING_ERROR"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery      = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrEmptyCollection = NewDomainError(ErrCodeValidation, "collection name cannot be empty")
)

// Configuration errors. A missing OpenAI key is fatal: nothing can be
// embedded without it, so the run never starts.
var (
	ErrMissingAPIKey      = NewDomainError(ErrCodeConfiguration, "OpenAI API key not configured")
	ErrMissingDatabaseURL = NewDomainError(ErrCodeConfiguration, "database URL not configured")
)

// Embedding errors, surfaced uniformly on both the ingest and the
// query path.
var (
	ErrEmptyEmbedding     = NewDomainError(ErrCodeEmbedding, "model returned an empty embedding")
	ErrWrongEmbeddingSize = NewDomainError(ErrCodeEmbedding, "embedding has unexpected dimensions")
)
