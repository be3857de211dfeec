package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFound(t *testing.T) {
	err := NotFound("task")
	assert.Equal(t, "task not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", err), ErrNotFound))
}

func TestInvalidID(t *testing.T) {
	err := InvalidID("task", "abc")
	assert.Equal(t, "Invalid Task ID format", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidID))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestStore_PreservesClassification(t *testing.T) {
	assert.Nil(t, Store("find", nil))

	nf := NotFound("report")
	assert.Same(t, nf, Store("find", nf))

	wrapped := Store("insert", errors.New("connection reset"))
	var se *StoreError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "insert", se.Op)
	assert.Equal(t, "store insert: connection reset", wrapped.Error())
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("notify: %w", &DeliveryError{Recipient: "qc@example.com", Err: cause})

	assert.True(t, IsDelivery(err))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsValidation(err))
}

func TestValidation(t *testing.T) {
	err := Validation("name", "%s is required", "name")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "name is required", err.Error())
}

func TestNotFoundWithMessage(t *testing.T) {
	err := NotFoundWithMessage("report", "No reports found for this task")
	assert.Equal(t, "No reports found for this task", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}
