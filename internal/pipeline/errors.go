package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StageError is the unified error type stage executors return. The
// controller's retry/backoff branches on Retryable and the concrete type
// rather than matching error text.
type StageError interface {
	error
	Stage() StageName
	Retryable() bool
	RetryAfter() *time.Duration
}

type stageErrorBase struct {
	stage      StageName
	message    string
	retryable  bool
	retryAfter *time.Duration
}

func (e *stageErrorBase) Error() string {
	msg := strings.TrimSpace(e.message)
	if msg == "" {
		msg = "stage failed"
	}
	return fmt.Sprintf("stage %s: %s", e.stage, msg)
}
func (e *stageErrorBase) Stage() StageName           { return e.stage }
func (e *stageErrorBase) Retryable() bool            { return e.retryable }
func (e *stageErrorBase) RetryAfter() *time.Duration { return e.retryAfter }

// RateLimitError: provider throttled the request. Backoff honors RetryAfter
// when present and otherwise uses the longer rate-limit delay.
type RateLimitError struct{ stageErrorBase }

// RequestTimeoutError: the stage call exceeded its deadline.
type RequestTimeoutError struct{ stageErrorBase }

// MalformedOutputError: the backend produced output the executor could not
// normalize (e.g. no JSON document where one was required).
type MalformedOutputError struct{ stageErrorBase }

// ServerError: transient provider-side failure (5xx class).
type ServerError struct{ stageErrorBase }

// ContentFilterError: the provider refused the request. Not retryable at the
// stage level; the quality gate's safety path handles content problems.
type ContentFilterError struct{ stageErrorBase }

// QuotaExceededError: billing/quota exhaustion. Not retryable.
type QuotaExceededError struct{ stageErrorBase }

// UnknownStageError: anything unclassified. Defaults to retryable.
type UnknownStageError struct{ stageErrorBase }

func NewRateLimitError(stage StageName, message string, retryAfter *time.Duration) error {
	return &RateLimitError{stageErrorBase{stage: stage, message: message, retryable: true, retryAfter: retryAfter}}
}

func NewRequestTimeoutError(stage StageName, message string) error {
	return &RequestTimeoutError{stageErrorBase{stage: stage, message: message, retryable: true}}
}

func NewMalformedOutputError(stage StageName, message string) error {
	return &MalformedOutputError{stageErrorBase{stage: stage, message: message, retryable: true}}
}

func NewServerError(stage StageName, message string) error {
	return &ServerError{stageErrorBase{stage: stage, message: message, retryable: true}}
}

func NewContentFilterError(stage StageName, message string) error {
	return &ContentFilterError{stageErrorBase{stage: stage, message: message, retryable: false}}
}

func NewQuotaExceededError(stage StageName, message string) error {
	return &QuotaExceededError{stageErrorBase{stage: stage, message: message, retryable: false}}
}

func NewUnknownStageError(stage StageName, message string) error {
	return &UnknownStageError{stageErrorBase{stage: stage, message: message, retryable: true}}
}

// StageErrorFromHTTPStatus maps a provider HTTP status to a typed StageError.
func StageErrorFromHTTPStatus(stage StageName, statusCode int, message string, retryAfter *time.Duration) error {
	base := stageErrorBase{stage: stage, message: fmt.Sprintf("status=%d: %s", statusCode, message), retryAfter: retryAfter}
	switch {
	case statusCode == 408:
		base.retryable = true
		return &RequestTimeoutError{base}
	case statusCode == 429:
		base.retryable = true
		return &RateLimitError{base}
	case statusCode >= 500 && statusCode <= 504:
		base.retryable = true
		return &ServerError{base}
	case statusCode == 402:
		return &QuotaExceededError{base}
	default:
		lower := strings.ToLower(message)
		if strings.Contains(lower, "content filter") || strings.Contains(lower, "safety") {
			return &ContentFilterError{base}
		}
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") {
			return &QuotaExceededError{base}
		}
		base.retryable = true
		return &UnknownStageError{base}
	}
}

// IsRateLimit reports whether err is (or wraps) a rate-limit stage error.
func IsRateLimit(err error) bool {
	var e *RateLimitError
	return errors.As(err, &e)
}

// IsRetryableStageError reports whether the error may succeed on retry.
// Non-StageError values default to retryable: an unrecognized failure mode
// is treated like transient infrastructure rather than a hard stop.
func IsRetryableStageError(err error) bool {
	var se StageError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}

// RetryAfterHint extracts a provider-supplied delay, if any.
func RetryAfterHint(err error) *time.Duration {
	var se StageError
	if errors.As(err, &se) {
		return se.RetryAfter()
	}
	return nil
}
