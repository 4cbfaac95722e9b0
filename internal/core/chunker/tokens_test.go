package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		charsPerToken int
		want          int
	}{
		{"empty string is zero tokens", "", 4, 0},
		{"partial token rounds up", "ABC", 4, 1},
		{"exact multiple", "ABCD", 4, 1},
		{"one over boundary", "ABCDE", 4, 2},
		{"long text", strings.Repeat("x", 4000), 4, 1000},
		{"charsPerToken one", "hello", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text, tt.charsPerToken))
		})
	}
}

func TestEstimateTokensInvalidRatioFallsBack(t *testing.T) {
	// Non-positive charsPerToken uses the default of 4.
	assert.Equal(t, 1, EstimateTokens("abcd", 0))
	assert.Equal(t, 2, EstimateTokens("abcde", -1))
}
