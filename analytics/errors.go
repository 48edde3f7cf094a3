package analytics

import "fmt"

// RequestError is returned for responses outside the 2xx range.
type RequestError struct {
	Endpoint   string
	Status     int
	StatusText string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("API Error: %d %s", e.Status, e.StatusText)
}

// ParseError is returned when a response body is not the expected JSON.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("analytics decode %s: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
