package jsonwrap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_Error(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{CodeNone, "No error"},
		{CodeDepth, "Maximum stack depth exceeded"},
		{CodeStateMismatch, "State mismatch (invalid or malformed JSON)"},
		{CodeCtrlChar, "Control character error, possibly incorrectly encoded"},
		{CodeSyntax, "Syntax error"},
		{CodeUTF8, "Malformed UTF-8 characters, possibly incorrectly encoded"},
		{CodeRecursion, "Recursion detected"},
		{CodeInfOrNaN, "Inf and NaN cannot be JSON encoded"},
		{CodeUnsupportedType, "Type is not supported"},
		{CodeInvalidPropertyName, "The decoded property name is invalid"},
		{CodeUTF16, "Single unpaired UTF-16 surrogate in unicode escape"},
		{ErrorCode(99), "Unknown error (99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.Error())
			assert.Equal(t, tt.expected, tt.code.String())
		})
	}
}

func TestEncodeError(t *testing.T) {
	cause := errors.New("codec failure")
	err := newEncodeError(CodeUnsupportedType, cause)

	assert.Equal(t, "encode: codec failure", err.Error())
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, CodeUnsupportedType)
	assert.ErrorIs(t, err, &EncodeError{Code: CodeUnsupportedType})
	assert.NotErrorIs(t, err, &DecodeError{Code: CodeUnsupportedType})
	assert.NotErrorIs(t, err, CodeSyntax)

	plain := newEncodeError(CodeRecursion, nil)
	assert.Equal(t, "encode: Recursion detected", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestDecodeError(t *testing.T) {
	err := newDecodeError(CodeSyntax, nil)

	assert.Equal(t, "decode: Syntax error", err.Error())
	assert.Equal(t, "Syntax error", err.Message)
	assert.ErrorIs(t, err, CodeSyntax)
	assert.ErrorIs(t, err, &DecodeError{Code: CodeSyntax})
	assert.NotErrorIs(t, err, &EncodeError{Code: CodeSyntax})
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{name: "nil", err: nil, code: CodeNone, expected: true},
		{name: "decode error", err: newDecodeError(CodeUTF16, nil), code: CodeUTF16, expected: true},
		{name: "wrapped encode error", err: fmt.Errorf("writing: %w", newEncodeError(CodeDepth, nil)), code: CodeDepth, expected: true},
		{name: "foreign", err: errors.New("other"), code: CodeNone, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := CodeOf(tt.err)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}
