package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "schema error type", errType: ErrTypeSchema, expected: "SCHEMA"},
		{name: "decode error type", errType: ErrTypeDecode, expected: "DECODE"},
		{name: "parsing error type", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "validation error type", errType: ErrTypeValidation, expected: "VALIDATION"},
		{name: "precondition error type", errType: ErrTypePrecondition, expected: "PRECONDITION"},
		{name: "invariant error type", errType: ErrTypeInvariant, expected: "INVARIANT"},
		{name: "storage error type", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "not found error type", errType: ErrTypeNotFound, expected: "NOT_FOUND"},
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewSchemaError("NIVEL type is text, but the expected type is float64", nil),
			wantMessage: "[SCHEMA] NIVEL type is text, but the expected type is float64",
		},
		{
			name:        "error with cause",
			appError:    NewStorageError("failed to write CSV", fmt.Errorf("disk full")),
			wantMessage: "[STORAGE] failed to write CSV: disk full",
		},
		{
			name:        "not found",
			appError:    NewNotFoundError("column PERFIL"),
			wantMessage: "[NOT_FOUND] column PERFIL not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("invalid UTF-8")
	err := fmt.Errorf("load roster: %w", NewDecodeError("no encoding could decode file", cause))

	assert.True(t, errors.Is(err, ErrDecode))
	assert.False(t, errors.Is(err, ErrSchema))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrTypeDecode, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "no encoding could decode file", appErr.Message)
}

func TestAppError_WithContext(t *testing.T) {
	err := NewParsingError("malformed value", nil).
		WithContext("column", "CUOTA_OBJETIVO").
		WithContext("row", 7)

	assert.Equal(t, "CUOTA_OBJETIVO", err.Context["column"])
	assert.Equal(t, 7, err.Context["row"])

	bare := &AppError{Type: ErrTypeConfig, Message: "x"}
	bare.WithContext("key", "value")
	assert.Equal(t, "value", bare.Context["key"])
}

func TestConstructors_SetType(t *testing.T) {
	tests := []struct {
		err  *AppError
		want ErrorType
	}{
		{NewAppValidationError("bad"), ErrTypeValidation},
		{NewPreconditionError("bad"), ErrTypePrecondition},
		{NewInvariantError("bad"), ErrTypeInvariant},
		{NewConfigError("bad", nil), ErrTypeConfig},
		{NewParsingError("bad", nil), ErrTypeParsing},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}
}
