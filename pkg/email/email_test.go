package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "john@example.com", Normalize("  John@Example.COM "))
}

func TestValid(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"john@example.com", true},
		{" john@example.com ", true},
		{"a@b.c", true},
		{"john@example", false},
		{"john example@x.com", false},
		{"@", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.address))
		})
	}
}
