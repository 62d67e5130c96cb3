package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/CrestNiraj12/mumlife/domain"
)

// SaveError carries the messages shown to the user when an auto-save fails.
type SaveError struct {
	Messages []string
	Err      error
}

func (e *SaveError) Error() string {
	return "Oops something went wrong!\n" + strings.Join(e.Messages, "\n")
}

func (e *SaveError) Unwrap() error { return e.Err }

// AutoField saves a single field as soon as the user leaves it.
type AutoField struct {
	Entity string // API entity path, e.g. "members/12"
	Name   string

	svc FieldService
	log *zap.Logger

	mu     sync.Mutex
	saved  string
	saving bool
}

// NewAutoField tracks field name of entity, starting from its stored value.
func NewAutoField(svc FieldService, entity, name, initial string, opts ...Option) *AutoField {
	o := buildOptions(opts)
	return &AutoField{
		Entity: entity,
		Name:   name,
		svc:    svc,
		log:    o.log,
		saved:  initial,
	}
}

// Commit saves value when it differs from the stored one. The field is
// disabled while the request runs; commits meanwhile are dropped.
// The stored value follows value once the request completes, even on
// failure.
func (f *AutoField) Commit(ctx context.Context, value string) (bool, error) {
	f.mu.Lock()
	if f.saving || value == f.saved {
		f.mu.Unlock()
		return false, nil
	}
	f.saving = true
	f.mu.Unlock()

	err := f.svc.PatchField(ctx, f.Entity, f.Name, value)

	f.mu.Lock()
	f.saving = false
	f.saved = value
	f.mu.Unlock()

	if err != nil {
		f.log.Warn("auto-save failed", zap.String("entity", f.Entity), zap.String("field", f.Name), zap.Error(err))
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) {
			return true, &SaveError{Messages: apiErr.Messages(), Err: err}
		}
		return true, &SaveError{Err: err}
	}
	return true, nil
}

// Flush saves a pending non-empty change when the view is torn down.
func (f *AutoField) Flush(ctx context.Context, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return f.Commit(ctx, value)
}

// Saved returns the last stored value.
func (f *AutoField) Saved() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

// Saving reports whether the field is disabled by a running save.
func (f *AutoField) Saving() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saving
}
