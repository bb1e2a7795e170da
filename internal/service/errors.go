package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured  = errors.New("not configured")
	ErrAlreadyPosted  = errors.New("post has already been published")
	ErrInvalidWindow  = errors.New("scheduling window must be at least one day")
	ErrNoImageCreated = errors.New("no image URL returned from image service")
	ErrInvalidStatus  = errors.New("invalid post status")
	ErrEmptyContent   = errors.New("generated post content is empty")
)

// GraphError is a failed Graph API call. Message carries the platform's
// error.message when the response had one.
type GraphError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
	FbtraceID  string
	Err        error
}

func (e *GraphError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("graph api request failed with status %d", e.StatusCode)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

func notConfigured(what string) error {
	return fmt.Errorf("%s credentials %w", what, ErrNotConfigured)
}
