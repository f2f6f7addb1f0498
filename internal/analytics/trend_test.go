package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChange(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		previous int
		expected float64
	}{
		{"growth", 150, 100, 50.0},
		{"decline", 50, 100, -50.0},
		{"flat", 100, 100, 0.0},
		{"rounds to one decimal", 100, 3, 3233.3},
		{"drop to zero", 0, 10, -100.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Change(tc.current, tc.previous)
			require.NotNil(t, result)
			assert.Equal(t, tc.expected, *result)
		})
	}
}

func TestChangeNilWhenNoBaseline(t *testing.T) {
	assert.Nil(t, Change(100, 0))
	assert.Nil(t, Change(0, 0))
}
