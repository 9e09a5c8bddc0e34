package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is wrapped by a FetchError for a 404 response.
var ErrNotFound = errors.New("resource not found")

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport errors (dial, reset, timeout).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents bodies that are not the expected JSON.
	ErrorClassDecode ErrorClass = "decode"
)

// FetchError describes a failed GET against the source API.
type FetchError struct {
	URL        string
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		if e.Err != nil {
			return fmt.Sprintf("fetch %s: %s error (status %d): %v", e.URL, e.ErrorClass, e.StatusCode, e.Err)
		}
		return fmt.Sprintf("fetch %s: %s error (status %d)", e.URL, e.ErrorClass, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s error: %v", e.URL, e.ErrorClass, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err stems from a 404 response.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// classifyStatus maps a non-2xx status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// statusError builds the FetchError for a non-2xx response.
func statusError(url string, status int) *FetchError {
	fe := &FetchError{
		URL:        url,
		StatusCode: status,
		ErrorClass: classifyStatus(status),
	}
	if status == http.StatusNotFound {
		fe.Err = ErrNotFound
	}
	if fe.ErrorClass == "" {
		fe.ErrorClass = ErrorClassClient
	}
	return fe
}
