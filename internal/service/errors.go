package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrDateConflict   = errors.New("date conflict")
	ErrAlreadyBlocked = errors.New("date is already blocked")
	ErrAlreadyBooked  = errors.New("date is already booked")
)

// ValidationError содержит сообщения по каждому неверному полю
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("invalid fields: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DateConflictError день занят. Known=false если гонку проиграли на уникальном индексе
// и вид занявшей записи уже не удалось определить.
type DateConflictError struct {
	Day     string
	Blocked bool
	Known   bool
}

func (e *DateConflictError) Error() string {
	switch {
	case !e.Known:
		return fmt.Sprintf("%s is no longer available, please choose another date", e.Day)
	case e.Blocked:
		return fmt.Sprintf("%s is unavailable, please choose another date", e.Day)
	default:
		return fmt.Sprintf("%s is already booked by a school, please choose another date", e.Day)
	}
}

func (e *DateConflictError) Unwrap() error {
	return ErrDateConflict
}
