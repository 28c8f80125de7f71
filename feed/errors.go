package feed

import (
	"errors"
	"fmt"
)

// NetworkError is a transport failure (Status 0) or a non-2xx response.
type NetworkError struct {
	Status int
	Body   string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("execute request: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError is a response body that is not the expected JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode response: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// RemoteError is an envelope whose status is not "success".
type RemoteError struct {
	Status  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%s): %s", e.Status, e.Message)
}

// Kind classifies err for logs and metrics.
func Kind(err error) string {
	var (
		ne *NetworkError
		de *DecodeError
		re *RemoteError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ne):
		if ne.Status != 0 {
			return "http"
		}
		return "network"
	case errors.As(err, &de):
		return "decode"
	case errors.As(err, &re):
		return "remote"
	}
	return "error"
}
