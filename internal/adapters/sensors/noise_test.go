package sensors_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osavioguedes/autonomous-vehicle/internal/adapters/sensors"
)

func TestNoiseGenerator_AddPerturbsAroundTheOriginalValue(t *testing.T) {
	// Arrange
	rng := rand.New(rand.NewSource(42))
	gen := sensors.NewNoiseGenerator(0.05, rng)

	// Act
	sum := 0.0
	const n = 5000
	for i := 0; i < n; i++ {
		sum += gen.Add(10.0) - 10.0
	}

	// Assert - the mean perturbation over many draws should be close to zero
	mean := sum / n
	assert.True(t, math.Abs(mean) < 0.01, "expected mean perturbation near zero, got %v", mean)
}

func TestDefaultChannelNoise_BuildsAGeneratorPerChannel(t *testing.T) {
	// Arrange
	rng := rand.New(rand.NewSource(7))
	channels := sensors.DefaultChannelNoise(rng)

	// Act & Assert - each channel generator is independently constructed
	assert.NotNil(t, channels.PositionX)
	assert.NotNil(t, channels.PositionY)
	assert.NotNil(t, channels.Theta)
	assert.NotNil(t, channels.Velocity)
	assert.NotNil(t, channels.Temperature)
}
