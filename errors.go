package jsonwrap

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric code carried by EncodeError and DecodeError.
// The values are stable and never reused.
type ErrorCode int

const (
	CodeNone                ErrorCode = 0
	CodeDepth               ErrorCode = 1
	CodeStateMismatch       ErrorCode = 2
	CodeCtrlChar            ErrorCode = 3
	CodeSyntax              ErrorCode = 4
	CodeUTF8                ErrorCode = 5
	CodeRecursion           ErrorCode = 6
	CodeInfOrNaN            ErrorCode = 7
	CodeUnsupportedType     ErrorCode = 8
	CodeInvalidPropertyName ErrorCode = 9
	CodeUTF16               ErrorCode = 10
)

var codeMessages = map[ErrorCode]string{
	CodeNone:                "No error",
	CodeDepth:               "Maximum stack depth exceeded",
	CodeStateMismatch:       "State mismatch (invalid or malformed JSON)",
	CodeCtrlChar:            "Control character error, possibly incorrectly encoded",
	CodeSyntax:              "Syntax error",
	CodeUTF8:                "Malformed UTF-8 characters, possibly incorrectly encoded",
	CodeRecursion:           "Recursion detected",
	CodeInfOrNaN:            "Inf and NaN cannot be JSON encoded",
	CodeUnsupportedType:     "Type is not supported",
	CodeInvalidPropertyName: "The decoded property name is invalid",
	CodeUTF16:               "Single unpaired UTF-16 surrogate in unicode escape",
}

// Error returns the canonical message for the code, so a code can be used
// as an errors.Is target.
func (c ErrorCode) Error() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("Unknown error (%d)", int(c))
}

// String implements fmt.Stringer
func (c ErrorCode) String() string {
	return c.Error()
}

// EncodeError is returned when a value cannot be serialized
type EncodeError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements error interface
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode: %s", e.Message)
}

// Unwrap returns the codec error, if any
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Is matches an ErrorCode or another *EncodeError with the same code
func (e *EncodeError) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *EncodeError:
		return e.Code == t.Code
	}
	return false
}

// DecodeError is returned when text cannot be parsed
type DecodeError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %s", e.Message)
}

// Unwrap returns the codec error, if any
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches an ErrorCode or another *DecodeError with the same code
func (e *DecodeError) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *DecodeError:
		return e.Code == t.Code
	}
	return false
}

func newEncodeError(code ErrorCode, err error) *EncodeError {
	msg := code.Error()
	if err != nil {
		msg = err.Error()
	}
	return &EncodeError{Code: code, Message: msg, Err: err}
}

func newDecodeError(code ErrorCode, err error) *DecodeError {
	msg := code.Error()
	if err != nil {
		msg = err.Error()
	}
	return &DecodeError{Code: code, Message: msg, Err: err}
}

// CodeOf extracts the code from an EncodeError or DecodeError anywhere in
// err's chain. It returns CodeNone for nil and false for foreign errors.
func CodeOf(err error) (ErrorCode, bool) {
	if err == nil {
		return CodeNone, true
	}
	var encErr *EncodeError
	if errors.As(err, &encErr) {
		return encErr.Code, true
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return decErr.Code, true
	}
	return CodeNone, false
}
