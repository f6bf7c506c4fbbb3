package feed

import "fmt"

// FeedUnavailableError represents a transient provider failure: network
// errors, 429s and 5xx responses that survived the retry budget. Callers may
// re-queue the work.
type FeedUnavailableError struct {
	Endpoint string
	Cause    error
}

func (e *FeedUnavailableError) Error() string {
	return fmt.Sprintf("feed unavailable [%s]: %v", e.Endpoint, e.Cause)
}

func (e *FeedUnavailableError) Unwrap() error {
	return e.Cause
}

// FeedRequestError represents a non-retryable provider rejection (4xx other
// than 429). Body is truncated for diagnostics.
type FeedRequestError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *FeedRequestError) Error() string {
	return fmt.Sprintf("feed request rejected [%s]: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// NewFeedUnavailableError creates a new transient feed error
func NewFeedUnavailableError(endpoint string, cause error) *FeedUnavailableError {
	return &FeedUnavailableError{Endpoint: endpoint, Cause: cause}
}

// NewFeedRequestError creates a new non-retryable feed error
func NewFeedRequestError(endpoint string, statusCode int, body string) *FeedRequestError {
	return &FeedRequestError{Endpoint: endpoint, StatusCode: statusCode, Body: body}
}
