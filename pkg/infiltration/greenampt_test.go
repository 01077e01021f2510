package infiltration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sandyLoam matches the default configuration
var sandyLoam = Params{
	Ks:            0.53,
	ThetaS:        0.518,
	ThetaI:        0.215,
	Psi:           -9.37,
	RainIntensity: 6.5,
}

func TestScalars(t *testing.T) {
	assert.InDelta(t, 0.303, sandyLoam.DeltaTheta(), 1e-12)

	wantFp := 0.303 * -9.37 / (1 - 6.5/0.53)
	assert.InDelta(t, wantFp, sandyLoam.PondingVolume(), 1e-12)
	assert.InDelta(t, 0.252, sandyLoam.PondingVolume(), 5e-4)

	assert.InDelta(t, wantFp/0.53, sandyLoam.PondingTime(), 1e-12)
	assert.InDelta(t, 0.476, sandyLoam.PondingTime(), 5e-4)
	assert.True(t, sandyLoam.PondingPossible())
}

func TestCompute(t *testing.T) {
	c, err := Compute(sandyLoam, 1.0, 500)
	require.NoError(t, err)

	require.Len(t, c.F, 500)
	require.Len(t, c.Rate, 500)
	assert.Equal(t, 0.0, c.F[0])
	assert.InDelta(t, 1.0, c.F[499], 1e-12)
	assert.InDelta(t, 1.0/499, c.F[1]-c.F[0], 1e-12)
	assert.InDelta(t, 0.303, c.DeltaTheta, 1e-12)
	assert.Equal(t, sandyLoam.PondingVolume(), c.Fp)
	assert.Equal(t, sandyLoam.PondingTime(), c.Tp)

	for i, F := range c.F {
		if F <= c.Fp {
			assert.Equal(t, sandyLoam.RainIntensity, c.Rate[i], "F=%g before ponding", F)
			continue
		}
		want := sandyLoam.Ks * (1 - c.DeltaTheta*sandyLoam.Psi/F)
		assert.InDelta(t, want, c.Rate[i], 1e-12, "F=%g after ponding", F)
		assert.Less(t, c.Rate[i], sandyLoam.RainIntensity)
	}

	last := c.Rate[len(c.Rate)-1]
	assert.Greater(t, last, sandyLoam.Ks, "capacity approaches Ks from above")
}

func TestRate_ContinuousAtPonding(t *testing.T) {
	fp := sandyLoam.PondingVolume()

	assert.Equal(t, sandyLoam.RainIntensity, sandyLoam.Rate(fp))
	assert.InDelta(t, sandyLoam.RainIntensity, sandyLoam.Rate(fp+1e-9), 1e-6)
	assert.InDelta(t, sandyLoam.RainIntensity, sandyLoam.Ks*(1-sandyLoam.DeltaTheta()*sandyLoam.Psi/fp), 1e-9)
}

func TestCompute_NoPonding(t *testing.T) {
	p := sandyLoam
	p.RainIntensity = 0.3

	assert.False(t, p.PondingPossible())
	assert.Less(t, p.PondingVolume(), 0.0)

	c, err := Compute(p, 1.0, 10)
	require.NoError(t, err)
	assert.True(t, math.IsInf(c.Rate[0], 1), "F=0 past a negative Fp divides by zero")
}

func TestCompute_RainEqualsConductivity(t *testing.T) {
	p := sandyLoam
	p.RainIntensity = p.Ks

	c, err := Compute(p, 1.0, 10)
	require.NoError(t, err)
	assert.True(t, math.IsInf(c.Fp, -1))
	assert.True(t, math.IsInf(c.Tp, -1))
}

func TestCompute_InvalidGrid(t *testing.T) {
	_, err := Compute(sandyLoam, 1.0, 1)
	require.ErrorIs(t, err, ErrSampling)

	_, err = Compute(sandyLoam, 0, 10)
	require.ErrorIs(t, err, ErrSampling)
}
