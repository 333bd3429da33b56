// internal/envelope/envelope.go
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize caps how much of a remote envelope is read.
const maxBodySize = 1 << 20

var ErrMalformed = errors.New("malformed envelope")

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

// Response is the uniform wrapper returned by every public endpoint.
// A successful response never carries Error and a failed one never carries Data.
type Response[T any] struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	Data      *T        `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Failure is the shape of every error response.
type Failure = Response[struct{}]

// Success wraps data in a successful response.
func Success[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: &data, Timestamp: now()}
}

// SuccessMessage wraps data in a successful response with a message.
func SuccessMessage[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: &data, Timestamp: now()}
}

// Error builds a failure carrying only a short error string.
func Error(short string) Failure {
	return Failure{Success: false, Error: short, Timestamp: now()}
}

// ErrorDetail builds a failure with a human message and an error detail.
func ErrorDetail(message, detail string) Failure {
	return Failure{Success: false, Message: message, Error: detail, Timestamp: now()}
}

// HasData reports whether the response carries a payload.
func (r Response[T]) HasData() bool {
	return r.Data != nil
}

// Write encodes resp as JSON with the given status.
func Write[T any](w http.ResponseWriter, status int, resp Response[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure cannot be reported to the client.
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 success envelope.
func OK[T any](w http.ResponseWriter, data T) {
	Write(w, http.StatusOK, Success(data))
}

// Created writes a 201 success envelope.
func Created[T any](w http.ResponseWriter, message string, data T) {
	Write(w, http.StatusCreated, SuccessMessage(message, data))
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, message, detail string) {
	if message == "" {
		Write(w, status, Error(detail))
		return
	}
	Write(w, status, ErrorDetail(message, detail))
}

// Decode reads an envelope from r. A missing or null data field decodes
// to a response whose HasData is false.
func Decode[T any](r io.Reader) (Response[T], error) {
	var resp Response[T]
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return resp, fmt.Errorf("read envelope: %w", err)
	}
	if len(body) == 0 {
		return resp, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return resp, nil
}
