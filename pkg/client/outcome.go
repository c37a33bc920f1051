package client

import (
	"encoding/xml"
)

// Outcome is the result of a logical request: a decoded value on success,
// or the error together with the raw body of the last response on failure.
// Callers inspect OK instead of receiving a bare error.
type Outcome[T any] struct {
	Value      T
	StatusCode int

	// Body is the raw body of the failing response, if any.
	Body []byte
	Err  error
}

// Success wraps a value.
func Success[T any](v T, status int) Outcome[T] {
	return Outcome[T]{Value: v, StatusCode: status}
}

// Failure wraps an error and the raw body that came with it.
func Failure[T any](err error, status int, body []byte) Outcome[T] {
	return Outcome[T]{Err: err, StatusCode: status, Body: body}
}

// OK reports whether the outcome is a success.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// Get returns the value and error as a conventional pair.
func (o Outcome[T]) Get() (T, error) {
	return o.Value, o.Err
}

// Map transforms a successful outcome. Failures pass through unchanged, and
// an error from fn becomes a failure carrying the original status.
func Map[T, U any](o Outcome[T], fn func(T) (U, error)) Outcome[U] {
	if !o.OK() {
		return Failure[U](o.Err, o.StatusCode, o.Body)
	}
	u, err := fn(o.Value)
	if err != nil {
		return Failure[U](err, o.StatusCode, nil)
	}
	return Success(u, o.StatusCode)
}

// DecodeXML unmarshals an XML body into T.
func DecodeXML[T any](body []byte) (T, error) {
	var v T
	if err := xml.Unmarshal(body, &v); err != nil {
		return v, &DecodeError{Err: err}
	}
	return v, nil
}

// Decode turns a raw outcome into a typed one. Decode failures are terminal
// and keep the undecodable body.
func Decode[T any](raw Outcome[[]byte]) Outcome[T] {
	if !raw.OK() {
		return Failure[T](raw.Err, raw.StatusCode, raw.Body)
	}
	v, err := DecodeXML[T](raw.Value)
	if err != nil {
		decodeErrorsTotal.Inc()
		return Failure[T](err, raw.StatusCode, raw.Value)
	}
	return Success(v, raw.StatusCode)
}
