// Package consonance renders the frequency-interaction view of musical
// consonance: for each interval, the partials of two tones played
// together produce pairwise frequency differences, and the density of
// those differences against the ear's roughness sensitivity curve shows
// why some intervals sound smooth and others rough.
package consonance

import "math"

// Model parameters.
const (
	// DefaultFundamental is the fundamental frequency of the lower tone in Hz.
	DefaultFundamental = 200.0
	// DefaultCriticalBandwidth is the critical bandwidth in Hz used by the
	// roughness kernel.
	DefaultCriticalBandwidth = 100.0
	// NumPartials is the number of harmonic partials per tone.
	NumPartials = 30
	// MaxDelta is the largest frequency difference considered, in Hz.
	MaxDelta = 200.0
	// GridPoints is the number of evaluation points on the Δf axis.
	GridPoints = 600
	// BandwidthFactor scales the sample standard deviation to obtain the
	// kernel bandwidth for density estimation.
	BandwidthFactor = 0.035
)

// Interval is a musical interval between two tones.
type Interval struct {
	// Name is the display name, e.g. "Perfect fifth (3:2)".
	Name string
	// Ratio is the frequency ratio of the upper tone to the lower.
	Ratio float64
	// Color is the hex stroke color without the leading '#'.
	Color string
}

// DefaultIntervals returns the four intervals in display order,
// widest interval first.
func DefaultIntervals() []Interval {
	return []Interval{
		{Name: "Octave (2:1)", Ratio: 2.0, Color: "64b5f6"},
		{Name: "Perfect fifth (3:2)", Ratio: 3.0 / 2.0, Color: "81c784"},
		{Name: "Perfect fourth (4:3)", Ratio: 4.0 / 3.0, Color: "ffb74d"},
		{Name: "Major third (5:4)", Ratio: 5.0 / 4.0, Color: "ff6b6b"},
	}
}

// Roughness is the Plomp-Levelt style roughness kernel. It peaks around
// a quarter of the critical bandwidth and decays toward zero for both
// unison and wide separation.
func Roughness(deltaF, criticalBandwidth float64) float64 {
	x := deltaF / criticalBandwidth
	return math.Exp(-3.5*x) - math.Exp(-5.75*x)
}

// PartialDeltas returns the pairwise frequency differences between the
// first numPartials harmonics of a tone at fundamental and a second tone
// at fundamental*ratio, keeping only differences up to maxDelta Hz.
func PartialDeltas(fundamental, ratio float64, numPartials int, maxDelta float64) []float64 {
	deltas := make([]float64, 0, numPartials*numPartials)
	for a := 1; a <= numPartials; a++ {
		fA := float64(a) * fundamental
		for b := 1; b <= numPartials; b++ {
			fB := float64(b) * fundamental * ratio
			delta := math.Abs(fA - fB)
			if delta <= maxDelta {
				deltas = append(deltas, delta)
			}
		}
	}
	return deltas
}

// Grid returns points evenly spaced over [min, max] inclusive.
func Grid(min, max float64, points int) []float64 {
	if points < 2 {
		return []float64{min}
	}
	xs := make([]float64, points)
	step := (max - min) / float64(points-1)
	for i := range xs {
		xs[i] = min + float64(i)*step
	}
	return xs
}
