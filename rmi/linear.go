package rmi

// Linear is a linear model: y = Slope*x + Intercept.
type Linear struct {
	Slope     float64
	Intercept float64
}

// Predict evaluates the model at x.
func (m Linear) Predict(x float64) float64 {
	return m.Slope*x + m.Intercept
}

// fitter accumulates (x, y) pairs and produces the least-squares line.
// It uses a streaming mean/covariance update, so training never materializes
// per-leaf slices.
type fitter struct {
	n            uint64
	meanX, meanY float64
	c, m2        float64
}

func (f *fitter) Add(x, y float64) {
	f.n++
	dx := x - f.meanX
	f.meanX += dx / float64(f.n)
	f.meanY += (y - f.meanY) / float64(f.n)
	f.c += dx * (y - f.meanY)
	f.m2 += dx * (x - f.meanX)
}

// Fit solves for the line. With fewer than two points, or zero variance in
// x (all-duplicate keys), it degrades to the constant model y = meanY.
func (f *fitter) Fit() Linear {
	if f.n == 0 {
		return Linear{}
	}
	if f.n == 1 || f.m2 == 0 {
		return Linear{Slope: 0, Intercept: f.meanY}
	}

	cov := f.c / float64(f.n-1)
	variance := f.m2 / float64(f.n-1)

	slope := cov / variance
	return Linear{
		Slope:     slope,
		Intercept: f.meanY - slope*f.meanX,
	}
}
