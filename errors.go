package skysync

import (
	"errors"
	"fmt"
)

// Common errors returned by skysync.
var (
	// ErrNotFound is returned when no persisted entity matches a lookup.
	ErrNotFound = errors.New("entity not found")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrFeedUnavailable is returned when a feed could not be reached or
	// kept answering with a non-success status after the retry budget.
	ErrFeedUnavailable = errors.New("feed unavailable")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// AuthError is returned when the feed's login exchange is rejected.
// Body carries the feed's response so operators can see why.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("auth: login rejected (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("auth: login rejected (status %d): %s", e.StatusCode, e.Body)
}

// FeedError is returned when a feed request fails. StatusCode is zero for
// transport-level failures. Supports Unwrap(); wraps ErrFeedUnavailable
// when the retry budget is exhausted.
type FeedError struct {
	Feed       string
	Operation  string
	StatusCode int
	Err        error
}

func (e *FeedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s failed (status %d): %v", e.Feed, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Feed, e.Operation, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
