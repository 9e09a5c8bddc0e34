package client

import (
	"errors"
	"io"
	"net/http"
	"testing"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{
			name: "status without cause",
			err:  &FetchError{URL: "http://x/people/1", StatusCode: 500, ErrorClass: ErrorClassServer},
			want: "fetch http://x/people/1: server error (status 500)",
		},
		{
			name: "status with cause",
			err:  &FetchError{URL: "http://x/people/1", StatusCode: 404, ErrorClass: ErrorClassClient, Err: ErrNotFound},
			want: "fetch http://x/people/1: client error (status 404): resource not found",
		},
		{
			name: "network",
			err:  &FetchError{URL: "http://x/people/1", ErrorClass: ErrorClassNetwork, Err: io.EOF},
			want: "fetch http://x/people/1: network error: EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := error(&FetchError{URL: "u", ErrorClass: ErrorClassNetwork, Err: io.ErrUnexpectedEOF})

	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should see the wrapped cause")
	}

	var fe *FetchError
	if !errors.As(err, &fe) || fe.ErrorClass != ErrorClassNetwork {
		t.Errorf("errors.As failed: %v", err)
	}
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		status   int
		class    ErrorClass
		notFound bool
	}{
		{http.StatusNotFound, ErrorClassClient, true},
		{http.StatusForbidden, ErrorClassClient, false},
		{http.StatusInternalServerError, ErrorClassServer, false},
		{http.StatusBadGateway, ErrorClassServer, false},
		{http.StatusMultipleChoices, ErrorClassClient, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := statusError("http://x", tt.status)
			if err.ErrorClass != tt.class {
				t.Errorf("class = %q, want %q", err.ErrorClass, tt.class)
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", IsNotFound(err), tt.notFound)
			}
		})
	}
}
