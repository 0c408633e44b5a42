package hydration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmartRound(t *testing.T) {
	t.Parallel()

	cases := map[float64]float64{
		2.10: 2,
		2.30: 2.5,
		2.80: 3,
		3.0:  3,
		0.24: 0,
		0.25: 0.5,
		7.75: 8,
	}
	for in, want := range cases {
		assert.InDelta(t, want, SmartRound(in), 1e-9, "SmartRound(%v)", in)
	}
}

func TestMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		liquid string
		want   float64
	}{
		{"Diet Coke", 0.9},
		{"Gatorade", 0.7},
		{"Beer", 0},
		{"water", 1.0},
		{"Sparkling Water", 1.0},
		{"Coca-Cola", 0.75},
		{"Red Bull energy drink", 0.65},
		{"iced coffee", 0.8},
		{"green tea", 0.8},
		{"chocolate milk", 0.75},
		{"orange juice", 0.7},
		{"watermelon juice", 0.7},
		{"strawberry smoothie", 0.65},
		{"root beer", 0.75},
		{"red wine", 0},
		{"", 1.0},
		{"kombucha", 1.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Multiplier(tt.liquid), 1e-9, tt.liquid)
	}
}

func TestFromContainer(t *testing.T) {
	t.Parallel()

	t.Run("half of a bottle", func(t *testing.T) {
		c, err := FromContainer(16.9, 50, 1, "water")
		require.NoError(t, err)
		assert.InDelta(t, 8.45, c.RawOunces, 1e-9)
		assert.InDelta(t, 8.5, c.Ounces, 1e-9)
		assert.InDelta(t, 16.9, c.ContainerCapacity, 1e-9)
	})

	t.Run("multiplier applied after servings", func(t *testing.T) {
		c, err := FromContainer(12, 0, 2, "Diet Coke")
		require.NoError(t, err)
		assert.InDelta(t, 24, c.RawOunces, 1e-9)
		assert.InDelta(t, 0.9, c.Multiplier, 1e-9)
		assert.InDelta(t, 21.5, c.Ounces, 1e-9)
	})

	t.Run("alcohol is rejected instead of logging zero", func(t *testing.T) {
		c, err := FromContainer(12, 100, 1, "Beer")
		require.ErrorIs(t, err, ErrAlcohol)
		assert.Nil(t, c)
	})

	t.Run("tiny sip rounds to nothing", func(t *testing.T) {
		_, err := FromContainer(0.2, 0, 1, "water")
		require.ErrorIs(t, err, ErrNoVolume)
	})
}

func TestFromDuration(t *testing.T) {
	t.Parallel()

	c, err := FromDuration(10, "large", 1, "water")
	require.NoError(t, err)
	assert.InDelta(t, 8, c.Ounces, 1e-9)
	assert.Zero(t, c.ContainerCapacity)

	c, err = FromDuration(10, "small", 1, "water")
	require.NoError(t, err)
	assert.InDelta(t, 5, c.Ounces, 1e-9)
}
