package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineZeroDistance(t *testing.T) {
	d := HaversineMeters(35.6764, 139.6993, 35.6764, 139.6993)
	assert.InDelta(t, 0, d, 0.001)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Meiji Jingu to Yasukuni is roughly 4.9 km
	d := HaversineMeters(35.6764, 139.6993, 35.6947, 139.7437)
	assert.InDelta(t, 4500, d, 1000)
}

func TestWithinRadius(t *testing.T) {
	// ~111m per 0.001 degrees of latitude
	assert.True(t, WithinRadius(35.6764, 139.6993, 35.6774, 139.6993, 150))
	assert.False(t, WithinRadius(35.6764, 139.6993, 35.6794, 139.6993, 150))
}

func TestHaversineSymmetry(t *testing.T) {
	a := HaversineMeters(35.0, 135.0, 34.0, 136.0)
	b := HaversineMeters(34.0, 136.0, 35.0, 135.0)
	assert.InDelta(t, a, b, 0.0001)
}
