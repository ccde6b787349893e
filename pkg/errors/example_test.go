// Package errors provides examples of structured error handling in colframe.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/colframe/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	// Create a new error with type
	err := errors.New(errors.ErrorTypeValidation, "illegal buffer size")

	// Add context details
	err = err.WithDetail("size", -1).
		WithDetail("buffer", "real")

	fmt.Println(err.Error())

	// Output:
	// validation: illegal buffer size
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	originalErr := io.ErrUnexpectedEOF

	err := errors.Wrap(originalErr, errors.ErrorTypeData, "failed to read chunk").
		WithDetail("chunk", 7)

	if errors.IsType(err, errors.ErrorTypeData) {
		fmt.Println("This is a data error")
	}

	if stderrors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Original error was unexpected EOF")
	}

	// Output:
	// This is a data error
	// Original error was unexpected EOF
}

// ExampleIsAborted demonstrates separating cancellation from input errors.
func ExampleIsAborted() {
	aborted := errors.New(errors.ErrorTypeAborted, "execution context is inactive")
	invalid := errors.Newf(errors.ErrorTypeValidation, "nanoseconds %d out of range", 1_000_000_000)

	fmt.Println(errors.IsAborted(aborted))
	fmt.Println(errors.IsAborted(invalid))

	// Output:
	// true
	// false
}

func TestWrapPreservesStack(t *testing.T) {
	inner := errors.New(errors.ErrorTypeState, "buffer is frozen")
	outer := errors.Wrap(inner, errors.ErrorTypeInternal, "column construction failed")

	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, errors.IsType(outer, errors.ErrorTypeInternal))
	assert.Contains(t, outer.Error(), "buffer is frozen")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrorTypeData, "nothing"))
}

func TestIsTypeOnForeignError(t *testing.T) {
	assert.False(t, errors.IsType(io.EOF, errors.ErrorTypeData))
	assert.False(t, errors.IsAborted(nil))
}

func TestNewCapturesStack(t *testing.T) {
	err := errors.Newf(errors.ErrorTypeBounds, "row %d out of bounds", 12)
	assert.NotEmpty(t, err.Stack)
	assert.Equal(t, "bounds: row 12 out of bounds", err.Error())
}

func TestTypeOfAndIs(t *testing.T) {
	err := fmt.Errorf("loading: %w", errors.New(errors.ErrorTypeConfig, "bad level"))
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
	assert.Equal(t, errors.ErrorType(""), errors.TypeOf(io.EOF))

	assert.True(t, stderrors.Is(err, &errors.Error{Type: errors.ErrorTypeConfig}))
	assert.False(t, stderrors.Is(err, &errors.Error{Type: errors.ErrorTypeData}))
}

func TestVerboseFormat(t *testing.T) {
	err := errors.New(errors.ErrorTypeData, "frame truncated").
		WithDetail("want", 16).
		WithDetail("got", 3)

	assert.Equal(t, "data: frame truncated", fmt.Sprintf("%v", err))
	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "\n  got=3\n  want=16")
	assert.Contains(t, verbose, "TestVerboseFormat")
}
