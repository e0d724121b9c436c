package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for the configuration layer. Callers match them with
// errors.Is; the loader and validator wrap them with file or component
// context before returning.
var (
	ErrInvalidYAML          = errors.New("invalid YAML syntax")
	ErrValidationFailed     = errors.New("configuration validation failed")
	ErrRoomNotFound         = errors.New("room not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrLLMProviderNotFound  = errors.New("LLM provider not found")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidValue         = errors.New("invalid field value")
	ErrInvalidPatch         = errors.New("invalid settings patch")
)

// ValidationError ties a validation failure to the component and field
// that produced it, so a broken bootstrap file names its bad entry.
type ValidationError struct {
	Component string
	ID        string
	Field     string
	Err       error
}

func NewValidationError(component, id, field string, err error) *ValidationError {
	return &ValidationError{Component: component, ID: id, Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s '%s': %v", e.Component, e.ID, e.Err)
	}
	return fmt.Sprintf("%s '%s': field '%s': %v", e.Component, e.ID, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LoadError carries the bootstrap file a read or parse failure came from.
type LoadError struct {
	File string
	Err  error
}

func NewLoadError(file string, err error) *LoadError {
	return &LoadError{File: file, Err: err}
}

func (e *LoadError) Error() string { return fmt.Sprintf("failed to load %s: %v", e.File, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }
