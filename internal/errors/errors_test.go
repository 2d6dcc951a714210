package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := DatabaseError("failed to query market records", cause)

	assert.Equal(t, CodeDatabaseError, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to query market records")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDatabaseError_NilCause(t *testing.T) {
	err := DatabaseError("schema migration failed", nil)

	assert.Equal(t, "schema migration failed", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestWrap_PreservesAppErrorCode(t *testing.T) {
	inner := DatabaseError("insert failed", fmt.Errorf("deadlock"))
	wrapped := Wrap(inner, "failed to persist report")

	assert.Equal(t, CodeDatabaseError, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, inner)
}

func TestWrap_NilPassesThrough(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
}
