package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrCredentialExpired  = errors.New("credential expired")
	ErrUnknownRole        = errors.New("unknown role")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrFeedSourceNotFound = errors.New("feed source not found")
	ErrHandleReleased     = errors.New("resource handle released")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// RequestError is a non-2xx response from the backend, carrying the
// human-readable message extracted from the body.
type RequestError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
