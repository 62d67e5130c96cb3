package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized indicates a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSubmitInProgress is returned while a previous submission is still running.
	ErrSubmitInProgress = errors.New("submission already in progress")

	// ErrSameMember indicates a friendship action targeting oneself.
	ErrSameMember = errors.New("cannot befriend yourself")

	// ErrMissingCSRF indicates no csrftoken cookie is available for an unsafe request.
	ErrMissingCSRF = errors.New("missing csrf token")
)

// DetailAlreadyExists is the server detail for a duplicate friendship.
const DetailAlreadyExists = "Already Exists"

// APIError is a non-2xx response from the Mumlife API.
type APIError struct {
	Method string
	Path   string
	Status int
	// Detail is the server's {"detail": ...} message, if any.
	Detail string
	// Fields holds per-field messages from {"field": ["msg", ...]} bodies.
	Fields map[string][]string
	Body   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("API %s %s returned %d: %s", e.Method, e.Path, e.Status, strings.TrimSpace(e.Body))
}

// Is lets errors.Is(err, ErrUnauthorized) match rejected sessions.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == 401 || e.Status == 403)
}

// Messages flattens field errors in a stable order, detail first.
func (e *APIError) Messages() []string {
	var out []string
	if e.Detail != "" {
		out = append(out, e.Detail)
	}
	for _, k := range sortedKeys(e.Fields) {
		out = append(out, e.Fields[k]...)
	}
	return out
}

// ErrorDetail returns the server detail carried by err, if any.
func ErrorDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// ValidationError is a single client-side form problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// ValidationErrors aggregates every problem found in a draft.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
