package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeAlreadyPaid, "appointment already paid")
		assert.True(t, HasCode(err, CodeAlreadyPaid))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches code of wrapped domain error", func(t *testing.T) {
		inner := New(CodeCapacityExceeded, "slot full")
		outer := Wrap(inner, CodeInternal, "booking failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeCapacityExceeded))
	})

	t.Run("sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("context: %w", New(CodeConflict, "version moved"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CodeInternal, "write failed")
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestValidationCollectsFields(t *testing.T) {
	assert.Nil(t, Validation("invalid card", nil))

	err := Validation("invalid card", map[string]string{
		"cvv":        "CVV must be 3 digits",
		"cardNumber": "card number must be 16 digits",
	})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeValidation))
	fields := FieldErrors(err)
	assert.Len(t, fields, 2)
	assert.Equal(t, "CVV must be 3 digits", fields["cvv"])
	assert.Equal(t, "validation: invalid card: cardNumber: card number must be 16 digits; cvv: CVV must be 3 digits", err.Error())
}

func TestEnsureKeepsExistingCode(t *testing.T) {
	coded := New(CodeConflict, "users kept changing")
	assert.Same(t, coded, Ensure(coded, CodeInternal, "register"))

	plain := errors.New("connection reset")
	wrapped := Ensure(plain, CodeInternal, "register")
	assert.Equal(t, CodeInternal, CodeOf(wrapped))
	assert.ErrorIs(t, wrapped, plain)
	assert.Nil(t, Ensure(nil, CodeInternal, "register"))
}
