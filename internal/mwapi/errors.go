package mwapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMissing is returned when the API reports the requested page as missing.
	ErrMissing = errors.New("page missing")
	// ErrBadResponse is returned when a response lacks the expected data.
	ErrBadResponse = errors.New("unexpected API response")
	// ErrCannotGuess is returned when no rendition URL can be derived.
	ErrCannotGuess = errors.New("cannot guess thumbnail URL")
)

// APIError is an error payload returned by the API.
type APIError struct {
	Module string `json:"-"`
	Code   string `json:"code"`
	Info   string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %s: %s", e.Module, e.Code, e.Info)
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}
