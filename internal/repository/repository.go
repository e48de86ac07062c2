// Package repository applies the cache-aware repository convention to each
// API domain: queries read through the TTL cache under a canonical key,
// mutations invalidate the affected keys only after the remote call
// succeeded.
package repository

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sarthi-kalathiya/examsync/internal/cache"
	"github.com/sarthi-kalathiya/examsync/internal/model"
	"github.com/sarthi-kalathiya/examsync/internal/validator"
)

// ValidationError reports client-side payload validation failures, keyed by
// JSON field name. The request never left the process.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid payload: " + strings.Join(names, ", ")
}

// InvalidTransitionError reports an exam status change rejected by the local
// transition guard, before any network call.
type InvalidTransitionError struct {
	Current model.ExamStatus
	Target  model.ExamStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("exam status cannot change from %s to %s", e.Current, e.Target)
}

// readThrough consults the cache under key and falls back to fetch on a
// miss, storing the result only when the remote call succeeded. A cached
// value that no longer decodes is treated as a miss.
func readThrough[T any](store *cache.Store, key string, fetch func() (T, error)) (T, error) {
	if raw, ok := store.Get(key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	var zero T
	value, err := fetch()
	if err != nil {
		return zero, err
	}
	store.Set(key, value)
	return value, nil
}

// validateReq maps field errors onto a ValidationError.
func validateReq(v *validator.Validator, req any) error {
	if fields := v.Struct(req); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}
