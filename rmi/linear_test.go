package rmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitterExactLine(t *testing.T) {
	var f fitter
	for x := 0; x < 100; x++ {
		f.Add(float64(x), 3*float64(x)+7)
	}

	line := f.Fit()
	assert.InDelta(t, 3.0, line.Slope, 1e-9)
	assert.InDelta(t, 7.0, line.Intercept, 1e-9)
	assert.InDelta(t, 3*42.0+7, line.Predict(42), 1e-9)
}

func TestFitterSinglePoint(t *testing.T) {
	var f fitter
	f.Add(5, 17)

	line := f.Fit()
	assert.Equal(t, 0.0, line.Slope)
	assert.Equal(t, 17.0, line.Intercept)
}

func TestFitterZeroVariance(t *testing.T) {
	// All-duplicate x must not divide by zero; the fit degrades to the
	// mean of y.
	var f fitter
	f.Add(9, 0)
	f.Add(9, 1)
	f.Add(9, 2)

	line := f.Fit()
	assert.Equal(t, 0.0, line.Slope)
	assert.InDelta(t, 1.0, line.Intercept, 1e-9)
}

func TestFitterEmpty(t *testing.T) {
	var f fitter
	line := f.Fit()
	assert.Equal(t, Linear{}, line)
}
