package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResults is returned by list queries whose filter matched nothing.
	ErrNoResults = errors.New("no results returned")
	// ErrNotFound is returned when a single article lookup misses.
	ErrNotFound = errors.New("no result returned")
	// ErrNotInitialized is returned by writes attempted before Initialize succeeded.
	ErrNotInitialized = errors.New("content store not initialized")
	// ErrUploadDisabled means no image host is configured.
	ErrUploadDisabled = errors.New("image upload not configured")
)

// LoadError reports a data file that could not be read or parsed at startup.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistError reports a failed rewrite of the articles file. The in-memory
// collection already holds the new article when this is returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// UploadError reports a feature image that could not be stored.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload (%s): %v", e.Reason, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
