package api

import "errors"

var (
	// ErrUnknownType is returned when a class_path does not resolve to a
	// registered component.
	ErrUnknownType = errors.New("unknown component type")
	// ErrInvalidArguments is returned when init_args are missing, extraneous,
	// or do not match the shape a component declares.
	ErrInvalidArguments = errors.New("invalid component arguments")
	// ErrModelCall is returned when a language model call fails after the
	// client's retries are exhausted.
	ErrModelCall = errors.New("language model call failed")
)
