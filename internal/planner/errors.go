package planner

import (
	"errors"
	"fmt"
)

// Errors that cross the Service boundary.
var (
	ErrInput           = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrPlanNotFound    = fmt.Errorf("plan %w", ErrNotFound)
	ErrIndexOutOfRange = fmt.Errorf("index out of range: entry %w", ErrNotFound)
)

// Errors absorbed by the orchestrator. They only show up in logs and metrics.
var (
	ErrGeneration = errors.New("generation failed")
	ErrParse      = errors.New("unparseable generation output")
	ErrValidation = errors.New("plan failed validation")
)

// ValidationError names the first check a candidate plan failed.
type ValidationError struct {
	Plan   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s plan invalid: %s", e.Plan, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(plan, format string, args ...any) *ValidationError {
	return &ValidationError{Plan: plan, Reason: fmt.Sprintf(format, args...)}
}
