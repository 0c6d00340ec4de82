package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewAppError("STORE_WRITE", "could not persist note", cause)

	assert.Equal(t, "STORE_WRITE: could not persist note: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewAppError("STORE_WRITE", "could not persist note", nil)
	assert.Equal(t, "STORE_WRITE: could not persist note", bare.Error())
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored"))

	cause := errors.New("boom")
	err := WrapError(cause, "open vault")
	require.Error(t, err)
	assert.Equal(t, "open vault: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestTag(t *testing.T) {
	cause := errors.New("connection refused")
	err := Tag(ErrBackendUnreachable, "generation backend unreachable", cause)

	assert.ErrorIs(t, err, ErrBackendUnreachable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrMalformedResponse)

	noCause := Tag(ErrValidation, "prompt must not be empty", nil)
	assert.ErrorIs(t, noCause, ErrValidation)
	assert.Equal(t, "prompt must not be empty: validation failed", noCause.Error())
}
