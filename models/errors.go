package models

import (
	"errors"
	"fmt"
)

// Kind classifies where in the pipeline an error originated.
type Kind string

const (
	KindPrecondition Kind = "precondition"
	KindScrape       Kind = "scrape"
	KindAnalysis     Kind = "analysis"
	KindGeneration   Kind = "generation"

	// KindUpstream marks failures of remote services (LLM, scraping service).
	// Stages wrap these before they reach a caller.
	KindUpstream Kind = "upstream"
	KindInternal Kind = "internal"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeNoCredits         = "NO_CREDITS"
	ErrCodeCreditCheckFailed = "CREDIT_CHECK_FAILED"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeScrapeFailed      = "SCRAPE_FAILED"
	ErrCodeAnalysisFailed    = "ANALYSIS_FAILED"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"

	ErrCodeScrapeService  = "SCRAPE_SERVICE_FAILURE"
	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeJobNotFound  = "JOB_NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Kind    Kind   `json:"kind,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error is the tagged error carried through every stage of a run.
// It implements the error interface and supports wrapping via Unwrap.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error.
func NewError(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *Error) ToDetail() *ErrorDetail {
	return &ErrorDetail{Kind: e.Kind, Code: e.Code, Message: e.Message}
}

// AsError extracts an *Error from err, wrapping foreign errors as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(KindInternal, ErrCodeInternal, err.Error(), err)
}
