package forecast

import "math"

// =============================================================================
// ORDINARY LEAST SQUARES
// =============================================================================

// epsilon is the tolerance under which a sum of squares counts as zero.
const epsilon = 1e-9

// LinearFit is y = Slope*x + Intercept over x = 0..n-1.
type LinearFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64 // 0-1
	N         int
}

// FitLine fits values against their index with the closed-form sums:
//
//	slope     = (n*Σxy - Σx*Σy) / (n*Σx² - (Σx)²)
//	intercept = (Σy - slope*Σx) / n
//	R²        = 1 - SS_res/SS_tot
//
// A zero slope denominator (fewer than two points) gives a flat line through
// the mean. A zero SS_tot (constant series) gives R² = 1 when the line fits
// exactly and 0 otherwise; no NaN escapes.
func FitLine(values []float64) LinearFit {
	n := len(values)
	if n == 0 {
		return LinearFit{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)

	fit := LinearFit{N: n}
	denom := fn*sumXX - sumX*sumX
	if math.Abs(denom) < epsilon {
		fit.Intercept = sumY / fn
	} else {
		fit.Slope = (fn*sumXY - sumX*sumY) / denom
		fit.Intercept = (sumY - fit.Slope*sumX) / fn
	}

	mean := sumY / fn
	var ssTot, ssRes float64
	for i, y := range values {
		ssTot += (y - mean) * (y - mean)
		r := y - fit.At(float64(i))
		ssRes += r * r
	}

	switch {
	case ssTot < epsilon && ssRes < epsilon:
		fit.RSquared = 1
	case ssTot < epsilon:
		fit.RSquared = 0
	default:
		fit.RSquared = clamp(1-ssRes/ssTot, 0, 1)
	}
	return fit
}

// At evaluates the line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Slope*x + f.Intercept
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance is the population variance.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return sum / float64(len(values))
}
