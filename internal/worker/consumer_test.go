package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, int32(20), CalculateBackoff(1))
	assert.Equal(t, int32(40), CalculateBackoff(2))
	assert.Equal(t, int32(80), CalculateBackoff(3))
	assert.Equal(t, int32(1280), CalculateBackoff(7))
	// Caps at one hour no matter how often a job failed.
	assert.Equal(t, int32(3600), CalculateBackoff(9))
	assert.Equal(t, int32(3600), CalculateBackoff(12))
}
