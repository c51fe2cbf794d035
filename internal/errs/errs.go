// Package errs provides the analyzer's error type: contextual errors for
// startup and the single-threaded analytic half. The classifier itself
// never allocates one of these; a parse failure there degrades to an
// Unknown/Text/Binary leaf instead, so per-packet errors never reach the
// error-handling cost of this type.
package errs

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Error carries the component and operation an error occurred in, plus
// optional free-form context, in addition to the wrapped error itself.
type Error struct {
	Err       error
	Code      string
	Component string
	Op        string
	File      string
	Line      int
	Context   string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s in %s: ", e.Code, e.Op, e.Component))
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	} else {
		sb.WriteString("unknown error")
	}
	if e.Context != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", e.Context))
	}
	if e.File != "" && e.Line > 0 {
		sb.WriteString(fmt.Sprintf(" at %s:%d", e.File, e.Line))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	if target == nil {
		return e.Err == target
	}
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return errors.Is(e.Err, target)
}

// Error codes the analytic half and startup path can raise. The
// classifier's non-goals keep this list short; there is no codec,
// SRTP, SIP, or database taxonomy here.
const (
	ErrCodeConfiguration = "CONFIG_ERROR"
	ErrCodeCapture       = "CAPTURE_ERROR"
	ErrCodeIO            = "IO_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// New creates an Error, capturing the caller's file and line.
func New(err error, code, component, op string) *Error {
	_, file, line, _ := runtime.Caller(1)
	parts := strings.Split(file, "/")
	shortFile := parts[len(parts)-1]
	return &Error{
		Err:       err,
		Code:      code,
		Component: component,
		Op:        op,
		File:      shortFile,
		Line:      line,
	}
}

// WithContext attaches free-form context to the error and returns it, for
// chaining at the call site.
func (e *Error) WithContext(ctx string) *Error {
	e.Context = ctx
	return e
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeConfiguration
	}
	return false
}

// IsCapture reports whether err originated from the capture source.
func IsCapture(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeCapture
	}
	return false
}
