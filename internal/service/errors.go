package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrIDRequired         = errors.New("id is required")
	ErrNotFound           = errors.New("not found")
	ErrReaderNil          = errors.New("reader is nil")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("permission denied")
	ErrFileMissing        = errors.New("stored file is missing")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports malformed input per field. No mutation is applied when it is returned.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// err returns e when any field failed, nil otherwise.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, msg string) error {
	v := &ValidationError{}
	v.add(field, msg)
	return v
}
