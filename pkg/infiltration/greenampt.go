// Package infiltration evaluates the Green-Ampt infiltration model under a
// constant rainfall intensity. Everything here is pure arithmetic; charting
// lives in package chart.
//
// Units follow the inch/hour convention: Ks and RainIntensity in in/hr, Psi
// in inches (negative suction), volumes in inches, times in hours.
package infiltration

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrSampling is returned for a sampling grid that cannot be built
var ErrSampling = errors.New("invalid sampling grid")

// Params are the five scalars of one soil and storm scenario
type Params struct {
	Ks            float64 // saturated hydraulic conductivity
	ThetaS        float64 // saturated moisture content
	ThetaI        float64 // initial moisture content
	Psi           float64 // wetting front suction head
	RainIntensity float64
}

// Curve is the sampled rate-versus-volume relationship plus the ponding scalars
type Curve struct {
	F          []float64
	Rate       []float64
	DeltaTheta float64
	Fp         float64
	Tp         float64
}

// DeltaTheta is the moisture deficit θs − θi
func (p Params) DeltaTheta() float64 {
	return p.ThetaS - p.ThetaI
}

// PondingVolume is the cumulative infiltration at which ponding starts,
// Δθ·ψ / (1 − i/Ks). Not guarded: i == Ks divides by zero and i < Ks gives
// a negative volume.
func (p Params) PondingVolume() float64 {
	return p.DeltaTheta() * p.Psi / (1 - p.RainIntensity/p.Ks)
}

// PondingTime is the time to ponding, Fp / Ks
func (p Params) PondingTime() float64 {
	return p.PondingVolume() / p.Ks
}

// PondingPossible reports whether rainfall exceeds conductivity, the only
// case in which Fp is a meaningful positive volume
func (p Params) PondingPossible() bool {
	return p.RainIntensity > p.Ks
}

// Rate is the infiltration rate after a cumulative volume F. Before ponding
// the soil takes all the rain; afterwards capacity decays as Ks·(1 − Δθ·ψ/F).
func (p Params) Rate(F float64) float64 {
	return p.rate(F, p.PondingVolume())
}

func (p Params) rate(F, fp float64) float64 {
	if F <= fp {
		return p.RainIntensity
	}
	return p.Ks * (1 - p.DeltaTheta()*p.Psi/F)
}

// Compute samples the rate at n evenly spaced volumes over [0, fMax],
// endpoints included
func Compute(p Params, fMax float64, n int) (Curve, error) {
	if n < 2 {
		return Curve{}, fmt.Errorf("%w: need at least 2 samples, got %d", ErrSampling, n)
	}
	if fMax <= 0 {
		return Curve{}, fmt.Errorf("%w: upper bound must be positive, got %g", ErrSampling, fMax)
	}

	fp := p.PondingVolume()
	c := Curve{
		F:          floats.Span(make([]float64, n), 0, fMax),
		Rate:       make([]float64, n),
		DeltaTheta: p.DeltaTheta(),
		Fp:         fp,
		Tp:         fp / p.Ks,
	}
	for i, F := range c.F {
		c.Rate[i] = p.rate(F, fp)
	}
	return c, nil
}
