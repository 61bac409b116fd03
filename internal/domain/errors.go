package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidID        = errors.New("invalid file id")
	ErrForbiddenFile    = errors.New("file type is not allowed")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrNoFile           = errors.New("no file in upload form")
	ErrRequestFailed    = errors.New("request to file API failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecode           = errors.New("failed to decode file API response")
)

// StatusError ответ API с кодом не из диапазона 2xx.
type StatusError struct {
	Operation  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %d", e.Operation, ErrUnexpectedStatus, e.StatusCode)
}

// Is позволяет проверять 404 через errors.Is(err, ErrFileNotFound).
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatus:
		return true
	case ErrFileNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}
