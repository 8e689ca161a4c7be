// Package benchmarkerrors contains the typed errors returned by the load-test harness.
//
// Callers should use errors.As to look through wrapped errors (github.com/pkg/errors) for these types.
// If multiple errors occur in some function (e.g., when closing several clients), that function should
// return an error of type multierror.Error from package github.com/hashicorp/go-multierror.
package benchmarkerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFinished is returned when the result of a runtime is requested before the runtime has completed.
var ErrNotFinished = errors.New("runtime has not finished")

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "consumersPerClient"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrNotFound is a generic error to be returned whenever some broker resource isn't found.
// Type and Message are optional and are omitted from the error message if not provided.
type ErrNotFound struct {
	Type    string // Resource type, e.g., "namespace" or "tenant"
	Value   string // Resource name, e.g., "public/default"
	Message string // An optional message to include in the error message
}

func (err *ErrNotFound) Error() (s string) {
	if err.Type != "" {
		s = fmt.Sprintf("resource %q of type %q does not exist", err.Value, err.Type)
	} else {
		s = fmt.Sprintf("resource %q does not exist", err.Value)
	}
	if err.Message != "" {
		return s + fmt.Sprintf("; %s", err.Message)
	} else {
		return s
	}
}

// ErrSubscribe is returned by a consumer group that was shut down because one of its subscriptions failed.
type ErrSubscribe struct {
	Topic        string
	Subscription string
	Err          error
}

func (err *ErrSubscribe) Error() string {
	return fmt.Sprintf("subscription %s to %s failed: %v", err.Subscription, err.Topic, err.Err)
}

func (err *ErrSubscribe) Unwrap() error {
	return err.Err
}

// ErrAborted is returned by a runtime that was shut down before it produced a result.
type ErrAborted struct {
	Runtime string
	Message string
}

func (err *ErrAborted) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("%s was shut down before completing", err.Runtime)
	}
	return fmt.Sprintf("%s was shut down before completing; %s", err.Runtime, err.Message)
}
