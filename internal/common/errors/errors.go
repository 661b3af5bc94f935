package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"matchmaking-workers/internal/matching"
	"matchmaking-workers/internal/models"
)

type ErrorCode string

const (
	ErrCodeSearcherProfileMissing  ErrorCode = "SEARCHER_PROFILE_MISSING"
	ErrCodeInvalidRequest          ErrorCode = "INVALID_REQUEST"
	ErrCodeProfileValidationFailed ErrorCode = "PROFILE_VALIDATION_FAILED"
	ErrCodeCandidateNotFound       ErrorCode = "CANDIDATE_NOT_FOUND"
	ErrCodeInternal                ErrorCode = "INTERNAL"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSourceUnavailable ErrorCode = "CANDIDATE_SOURCE_UNAVAILABLE"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeRecipientNotFound      ErrorCode = "RECIPIENT_NOT_FOUND"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewSearcherProfileMissingError is surfaced to the member as "complete your
// profile first"; it is never retried.
func NewSearcherProfileMissingError(userID string) *StandardError {
	return newError(ErrCodeSearcherProfileMissing,
		"Complete your profile before searching",
		fmt.Sprintf("userId: %s", userID), false, matching.ErrSearcherProfileNotFound)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid search request", details, false, matching.ErrInvalidRequest)
}

func NewProfileValidationFailedError(err error) *StandardError {
	return newError(ErrCodeProfileValidationFailed, "Profile data is incomplete", err.Error(), false, err)
}

func NewCandidateNotFoundError(candidateID string) *StandardError {
	return newError(ErrCodeCandidateNotFound, "Candidate profile not found",
		fmt.Sprintf("candidateId: %s", candidateID), false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Internal error", err.Error(), true, err)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

func NewQueryExecutionFailedError(queryType models.QueryType, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true, err)
}

func NewQueryTimeoutError(queryType models.QueryType) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true, nil)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout",
		fmt.Sprintf("index: %s", index), true, nil)
}

func NewSourceUnavailableError(source string, err error) *StandardError {
	return newError(ErrCodeSourceUnavailable,
		fmt.Sprintf("Candidate source '%s' unavailable", source), err.Error(), true, err)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Profile cache unavailable", err.Error(), true, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewRecipientNotFoundError(recipientID string) *StandardError {
	return newError(ErrCodeRecipientNotFound, "Recipient not found",
		fmt.Sprintf("recipientId: %s", recipientID), false, nil)
}

// FromMatchingError classifies errors returned by the ranker. Anything that is
// not a known domain condition and not already classified becomes INTERNAL.
func FromMatchingError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case stderrors.Is(err, matching.ErrSearcherProfileNotFound):
		e := NewSearcherProfileMissingError("")
		e.Details = err.Error()
		return e
	case stderrors.Is(err, matching.ErrInvalidRequest):
		return NewInvalidRequestError(err.Error())
	}
	var pve *models.ProfileValidationError
	if stderrors.As(err, &pve) {
		return NewProfileValidationFailedError(err)
	}
	return NewInternalError(err)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSearcherProfileMissing:   "SEARCHER_PROFILE_MISSING",
	ErrCodeInvalidRequest:           "INVALID_REQUEST",
	ErrCodeProfileValidationFailed:  "PROFILE_VALIDATION_FAILED",
	ErrCodeCandidateNotFound:        "CANDIDATE_NOT_FOUND",
	ErrCodeInternal:                 "INTERNAL",
	ErrCodeDatabaseConnectionFailed: "INTERNAL",
	ErrCodeQueryExecutionFailed:     "INTERNAL",
	ErrCodeQueryTimeout:             "INTERNAL",
	ErrCodeSearchQueryFailed:        "INTERNAL",
	ErrCodeSearchTimeout:            "INTERNAL",
	ErrCodeSourceUnavailable:        "INTERNAL",
	ErrCodeCacheUnavailable:         "INTERNAL",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeRecipientNotFound:        "RECIPIENT_NOT_FOUND",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeInternal,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeSourceUnavailable:
		return 2

	case ErrCodeCacheUnavailable:
		return 1

	default:
		return 0 // business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "CANDIDATE_NOT_FOUND"):
		return "PROFILE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "SOURCE"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "RECIPIENT"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
