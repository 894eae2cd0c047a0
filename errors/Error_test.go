// nolint:forbidigo,depguard // This test file needs the standard errors package for testing the custom errors package
package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")
	require.NotNil(t, err)
	require.Equal(t, ERR_NOT_FOUND, err.code)
	require.Equal(t, "resource not found", err.message)

	secondErr := New(ERR_INVALID_ARGUMENT, "[Verify][%s] failed to decode header: ", "_teststring_", err)
	thirdErr := New(ERR_TARGET_MISMATCH, "[Verify][%s] bits differ: ", "_teststring_", secondErr)
	anotherErr := New(ERR_TARGET_MISMATCH, "Another ERR, header is invalid")
	fourthErr := New(ERR_SERVICE_ERROR, "older error: ", thirdErr)
	fifthErr := New(ERR_INSUFFICIENT_WORK, "hash above target", fourthErr)

	require.True(t, anotherErr.Is(thirdErr))
	require.True(t, fourthErr.Is(New(ERR_TARGET_MISMATCH, "")))
	require.True(t, fourthErr.Is(ErrTargetMismatch))

	require.True(t, fourthErr.Is(err))
	require.True(t, fifthErr.Is(thirdErr))
	require.True(t, fifthErr.Is(err))

	require.False(t, anotherErr.Is(fourthErr))
	require.False(t, fifthErr.Is(ErrUnknownParent))
}

func TestFmtErrorCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")

	fmtError := fmt.Errorf("error: %w", err)
	require.NotNil(t, fmtError)

	require.ErrorIs(t, fmtError, err)
	require.ErrorIs(t, fmtError, ErrNotFound)

	var target *Error
	require.True(t, errors.As(fmtError, &target))
	assert.Equal(t, ERR_NOT_FOUND, target.Code())
}

func TestNewWrapsStandardError(t *testing.T) {
	base := fmt.Errorf("disk full")
	err := New(ERR_STORAGE_ERROR, "failed to write tip for %s", "mainnet", base)

	assert.Equal(t, "failed to write tip for mainnet", err.Message())
	require.NotNil(t, err.WrappedErr())
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, ERR_ERROR, err.WrappedErr().(*Error).Code())
}

func TestNewInvalidCode(t *testing.T) {
	err := New(ERR(9999), "whatever")
	assert.Equal(t, "invalid error code", err.Message())
}

func TestErrorString(t *testing.T) {
	err := New(ERR_UNKNOWN_PARENT, "parent %s not in chain", "abcd")
	assert.Equal(t, "Error: UNKNOWN_PARENT (error code: 20), Message: parent abcd not in chain", err.Error())

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Equal(t, ERR_UNKNOWN, nilErr.Code())
	assert.Nil(t, nilErr.Unwrap())
}

func TestErrorSetGetData(t *testing.T) {
	err := New(ERR_PROCESSING, "processing")
	assert.Nil(t, err.GetData("key"))

	err.SetData("key", "value")
	assert.Equal(t, "value", err.GetData("key"))
	assert.Contains(t, err.Error(), "Data:")
}

func TestCodeStringAndParse(t *testing.T) {
	assert.Equal(t, "RETARGET_REQUIRED", ERR_RETARGET_REQUIRED.String())
	assert.Equal(t, "4242", ERR(4242).String())
	assert.Equal(t, ERR_UNAUTHORIZED, ParseERR("UNAUTHORIZED"))
	assert.Equal(t, ERR_UNKNOWN, ParseERR("NOPE"))
	assert.Equal(t, ERR_EMPTY_INPUT, *ERR_EMPTY_INPUT.Enum())

	for code, name := range ERR_name {
		assert.Equal(t, code, ERR_value[name])
	}
}

func TestWrapUnwrapGRPC(t *testing.T) {
	inner := New(ERR_INVALID_PARENT, "prev hash mismatch at index 3")
	outer := New(ERR_SERVICE_ERROR, "submit failed", inner)

	wrapped := WrapGRPC(outer)
	require.Error(t, wrapped)

	st, ok := status.FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "submit failed", st.Message())
	assert.Len(t, st.Details(), 2)

	unwrapped := UnwrapGRPC(wrapped)
	require.NotNil(t, unwrapped)
	assert.Equal(t, ERR_SERVICE_ERROR, unwrapped.Code())
	assert.Equal(t, "submit failed", unwrapped.Message())
	assert.True(t, unwrapped.Is(ErrInvalidParent))

	assert.True(t, Is(wrapped, ErrInvalidParent))
	assert.False(t, Is(wrapped, ErrUnauthorized))
}

func TestWrapGRPCCodes(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{NewInvalidTargetError("x"), codes.InvalidArgument},
		{NewUnknownParentError("x"), codes.NotFound},
		{NewForksNotSupportedError("x"), codes.FailedPrecondition},
		{NewUnauthorizedError("x"), codes.PermissionDenied},
		{NewServiceUnavailableError("x"), codes.Unavailable},
		{NewStorageError("x"), codes.Internal},
	}

	for _, tt := range tests {
		st, ok := status.FromError(WrapGRPC(tt.err))
		require.True(t, ok)
		assert.Equal(t, tt.code, st.Code(), tt.err.Error())
	}
}

func TestWrapGRPCHeaderData(t *testing.T) {
	err := NewHeaderError(ERR_INSUFFICIENT_WORK, 4, 1004, "00ab", "hash above target")

	unwrapped := UnwrapGRPC(WrapGRPC(err))
	require.NotNil(t, unwrapped)

	data, ok := unwrapped.Data().(*HeaderErrData)
	require.True(t, ok)
	assert.Equal(t, 4, data.Index)
	assert.Equal(t, uint32(1004), data.Height)
	assert.Equal(t, "00ab", data.Hash)

	var target *HeaderErrData
	assert.True(t, AsData(WrapGRPC(err), &target))
}

func TestWrapGRPCPassThrough(t *testing.T) {
	assert.NoError(t, WrapGRPC(nil))
	assert.Nil(t, UnwrapGRPC(nil))

	st := status.Error(codes.NotFound, "plain")
	assert.Equal(t, st, WrapGRPC(st))

	unwrapped := UnwrapGRPC(st)
	assert.Equal(t, ERR_NOT_FOUND, unwrapped.Code())

	wrappedStd := WrapGRPC(fmt.Errorf("std"))
	assert.Equal(t, ERR_ERROR, UnwrapGRPC(wrappedStd).Code())
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	err := Join(NewEmptyInputError("a"), nil, fmt.Errorf("b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMPTY_INPUT")
	assert.Contains(t, err.Error(), ", b")
}

func TestAsCustomError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewContextCanceledError("stop", context.Canceled))

	var tErr *Error
	require.True(t, As(err, &tErr))
	assert.Equal(t, ERR_CONTEXT_CANCELED, tErr.Code())
}
