// Package errors provides structured error handling for colframe.
//
// Every failure raised by the column library carries an ErrorType so callers can
// tell "your input was wrong" (validation, bounds) from "you used the column the
// wrong way" (capability, state) and from "the run was cancelled" (aborted):
//
//	buf, _ := columnar.NewRealBuffer(3)
//	col := buf.ToColumn()
//	if err := buf.Set(0, 1.5); errors.IsType(err, errors.ErrorTypeState) {
//	    // buffer was already frozen into col
//	}
//
// Errors print as "type: message[: cause]". The %+v verb adds details and the
// stack captured where the error was created.
package errors

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
)

// ErrorType is the category of an error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal errors, e.g. a panic inside submitted work
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents illegal arguments: sizes, value ranges, formats
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCapability represents calls a column does not support
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeState represents mutation of a frozen buffer
	ErrorTypeState ErrorType = "state"
	// ErrorTypeBounds represents row indices outside a buffer's declared size
	ErrorTypeBounds ErrorType = "bounds"
	// ErrorTypeAborted represents work that was cancelled or never started
	ErrorTypeAborted ErrorType = "aborted"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents malformed ingestion data
	ErrorTypeData ErrorType = "data"
)

// Error is a typed error with optional cause, details and creation stack.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is one caller frame of Error.Stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by type when the target has no message, so
// errors.Is(err, &Error{Type: ErrorTypeState}) tests the outermost type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Type == e.Type
}

// WithDetail records a key-value detail and returns e.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, 2)
	}
	e.Details[key] = value
	return e
}

// Format implements fmt.Formatter. %+v prints details and the stack.
func (e *Error) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		_, _ = io.WriteString(s, e.Error())
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(s, "\n  %s=%v", k, e.Details[k])
		}
		for _, f := range e.Stack {
			fmt.Fprintf(s, "\n    %s\n        %s:%d", f.Function, f.File, f.Line)
		}
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

// New creates an error of the given type.
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message, Stack: captureStack(3)}
}

// Newf creates an error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Stack: captureStack(3)}
}

// Wrap gives err a type and message. A nil err yields nil. The stack of an
// inner *Error is kept instead of capturing a new one.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	wrapped := &Error{Type: errType, Message: message, Cause: err}
	var inner *Error
	if errors.As(err, &inner) {
		wrapped.Stack = inner.Stack
	} else {
		wrapped.Stack = captureStack(3)
	}
	return wrapped
}

// TypeOf returns the type of the outermost *Error in err's chain, or "" when
// there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// IsType reports whether the outermost *Error in err's chain has type errType.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

// IsAborted reports whether err signals a cancelled or refused execution
// rather than a problem with the caller's input.
func IsAborted(err error) bool {
	return IsType(err, ErrorTypeAborted)
}

const maxStackDepth = 32

// captureStack records the callers starting skip frames above runtime.Callers.
func captureStack(skip int) []StackFrame {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]StackFrame, 0, n)
	for {
		f, more := frames.Next()
		stack = append(stack, StackFrame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return stack
}
