// Package runtimex contains runtime extensions. We use it to abort loudly
// when the harness detects an internal inconsistency.
package runtimex

import (
	"errors"
	"fmt"
)

// PanicOnError calls panic() if err is not nil.
func PanicOnError(err error, message string) {
	if err != nil {
		panic(fmt.Errorf("%s: %w", message, err))
	}
}

// Assert calls panic if assertion is false.
func Assert(assertion bool, message string) {
	if !assertion {
		panic(errors.New(message))
	}
}

// Try0 panics if err is not nil.
func Try0(err error) {
	PanicOnError(err, "Try0")
}

// Try1 is like [Try0] but returns v when err is nil.
func Try1[T any](v T, err error) T {
	PanicOnError(err, "Try1")
	return v
}
