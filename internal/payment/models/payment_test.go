package models

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTransactionID(t *testing.T) {
	pattern := regexp.MustCompile(`^TXN_[0-9A-Z]{9}$`)
	seen := map[string]bool{}
	for range 100 {
		ref := NewTransactionID()
		assert.Regexp(t, pattern, ref)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestCardDetails(t *testing.T) {
	card := CardDetails{Number: " 4111 1111-1111 1234 ", Holder: "  Jane  ", Expiry: "12/27", CVV: "123"}.Normalize()
	assert.Equal(t, "Jane", card.Holder)
	assert.Equal(t, "1234", card.Last4())
	assert.Equal(t, "12", CardDetails{Number: "12"}.Last4())
}
