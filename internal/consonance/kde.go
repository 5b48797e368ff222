package consonance

import (
	"errors"
	"math"
)

// KDE estimation errors
var (
	// ErrTooFewSamples is returned when there are not enough samples to
	// estimate a bandwidth
	ErrTooFewSamples = errors.New("kde requires at least two samples")
	// ErrZeroVariance is returned when all samples are identical
	ErrZeroVariance = errors.New("kde requires samples with non-zero variance")
)

// KDE is a one-dimensional Gaussian kernel density estimate with a
// bandwidth proportional to the sample standard deviation.
type KDE struct {
	samples   []float64
	bandwidth float64
}

// NewKDE builds a density estimate over samples. The bandwidth is
// factor times the sample standard deviation.
func NewKDE(samples []float64, factor float64) (*KDE, error) {
	if len(samples) < 2 {
		return nil, ErrTooFewSamples
	}

	std := sampleStdDev(samples)
	if std == 0 {
		return nil, ErrZeroVariance
	}

	return &KDE{
		samples:   samples,
		bandwidth: factor * std,
	}, nil
}

// Bandwidth returns the kernel bandwidth in the units of the samples.
func (k *KDE) Bandwidth() float64 {
	return k.bandwidth
}

// Evaluate returns the estimated probability density at x.
func (k *KDE) Evaluate(x float64) float64 {
	n := float64(len(k.samples))
	norm := 1.0 / (n * k.bandwidth * math.Sqrt(2*math.Pi))

	var sum float64
	for _, s := range k.samples {
		u := (x - s) / k.bandwidth
		sum += math.Exp(-0.5 * u * u)
	}
	return norm * sum
}

// DensityCurve evaluates the estimate at each grid point and scales by
// the sample count, so curves for intervals with different numbers of
// interacting partial pairs remain comparable.
func DensityCurve(samples []float64, xs []float64) ([]float64, error) {
	kde, err := NewKDE(samples, BandwidthFactor)
	if err != nil {
		return nil, err
	}

	n := float64(len(samples))
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = kde.Evaluate(x) * n
	}
	return ys, nil
}

// sampleStdDev returns the unbiased sample standard deviation.
func sampleStdDev(samples []float64) float64 {
	n := float64(len(samples))

	var mean float64
	for _, s := range samples {
		mean += s
	}
	mean /= n

	var ss float64
	for _, s := range samples {
		d := s - mean
		ss += d * d
	}
	return math.Sqrt(ss / (n - 1))
}
