package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during
	// admission, a network attempt or a retry backoff.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrResponseTooLarge is returned by the HTTP sender when a body exceeds
	// its size limit. It is never retried.
	ErrResponseTooLarge = errors.New("response too large")
)

// ErrorClass represents a classification of a failed attempt.
type ErrorClass string

const (
	// ErrorClassClient represents terminal 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassPending represents 202 Accepted: the request was queued
	// upstream and must be repeated later.
	ErrorClassPending ErrorClass = "pending"

	// ErrorClassNetwork represents transport errors and attempt timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a body that could not be decoded.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassTooLarge represents a body over the sender's size limit.
	ErrorClassTooLarge ErrorClass = "too_large"
)

// UpstreamError is a non-success response from the API.
type UpstreamError struct {
	StatusCode int
	ErrorClass ErrorClass
	URL        string
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("BGG %s error (status %d) for %s: %v", e.ErrorClass, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("BGG %s error (status %d) for %s", e.ErrorClass, e.StatusCode, e.URL)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// DecodeError wraps a failure to decode a response body. It is terminal.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ClassOf returns the ErrorClass carried by err, or "" if none.
func ClassOf(err error) ErrorClass {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.ErrorClass
	}
	var decode *DecodeError
	if errors.As(err, &decode) {
		return ErrorClassDecode
	}
	return ""
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassPending, ErrorClassNetwork:
		return true
	default:
		// 4xx, decode and oversize failures will not get better by asking again
		return false
	}
}

// classifyStatus maps an HTTP status to an ErrorClass; "" means success.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 202:
		return ErrorClassPending
	case status == 429:
		return ErrorClassRateLimit
	case status >= 500:
		return ErrorClassServer
	case status >= 200 && status < 300:
		return ""
	default:
		return ErrorClassClient
	}
}
