package client

import (
	"errors"
	"fmt"
)

// CatalogError represents a failed catalog request with additional context.
// It never reaches FetchPage callers; it drives logging and metrics.
type CatalogError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// AsCatalogError extracts a *CatalogError from err.
func AsCatalogError(err error) (*CatalogError, bool) {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ClassOf returns the error class of err, or "" for foreign errors.
func ClassOf(err error) ErrorClass {
	if ce, ok := AsCatalogError(err); ok {
		return ce.ErrorClass
	}
	return ""
}

// classifyStatus maps a non-success HTTP status to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		// 1xx/3xx reaching us is as unusable as a 4xx.
		return ErrorClassClient
	}
}
