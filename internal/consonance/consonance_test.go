package consonance

import (
	"math"
	"testing"
)

func TestRoughnessVanishesAtUnison(t *testing.T) {
	if r := Roughness(0, DefaultCriticalBandwidth); r != 0 {
		t.Errorf("expected zero roughness at zero difference, got %f", r)
	}
}

func TestRoughnessPeaksInsideCriticalBand(t *testing.T) {
	var peakDelta, peakValue float64
	for delta := 0.0; delta <= MaxDelta; delta += 0.5 {
		if r := Roughness(delta, DefaultCriticalBandwidth); r > peakValue {
			peakValue = r
			peakDelta = delta
		}
	}

	// The kernel peaks around a quarter of the critical bandwidth
	if peakDelta < 15 || peakDelta > 30 {
		t.Errorf("expected roughness peak between 15 and 30 Hz, got %f", peakDelta)
	}
	if peakValue <= 0 {
		t.Errorf("expected positive peak roughness, got %f", peakValue)
	}
}

func TestRoughnessDecaysForWideSeparation(t *testing.T) {
	peak := Roughness(22, DefaultCriticalBandwidth)
	wide := Roughness(MaxDelta, DefaultCriticalBandwidth)
	if wide >= peak/2 {
		t.Errorf("expected roughness at %f Hz (%f) to be well below peak (%f)", MaxDelta, wide, peak)
	}
}

func TestPartialDeltasOctave(t *testing.T) {
	deltas := PartialDeltas(DefaultFundamental, 2.0, NumPartials, MaxDelta)
	if len(deltas) == 0 {
		t.Fatal("expected non-empty deltas for octave")
	}

	for _, d := range deltas {
		if d < 0 || d > MaxDelta {
			t.Errorf("delta %f outside [0, %f]", d, MaxDelta)
		}
	}

	// Every even partial of the lower tone coincides with a partial of
	// the upper tone, so zero differences must be present
	hasZero := false
	for _, d := range deltas {
		if d == 0 {
			hasZero = true
			break
		}
	}
	if !hasZero {
		t.Error("expected coinciding partials to produce zero differences for the octave")
	}
}

func TestPartialDeltasFundamentalDifferencePresent(t *testing.T) {
	for _, interval := range DefaultIntervals() {
		want := math.Abs(DefaultFundamental - interval.Ratio*DefaultFundamental)
		deltas := PartialDeltas(DefaultFundamental, interval.Ratio, NumPartials, MaxDelta)

		found := false
		for _, d := range deltas {
			if math.Abs(d-want) < 1e-9 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s: expected fundamental difference %f among deltas", interval.Name, want)
		}
	}
}

func TestPartialDeltasNarrowerIntervalsInteractMore(t *testing.T) {
	octave := PartialDeltas(DefaultFundamental, 2.0, NumPartials, MaxDelta)
	third := PartialDeltas(DefaultFundamental, 5.0/4.0, NumPartials, MaxDelta)
	if len(third) <= len(octave) {
		t.Errorf("expected the major third (%d pairs) to have more close interactions than the octave (%d)",
			len(third), len(octave))
	}
}

func TestDefaultIntervals(t *testing.T) {
	intervals := DefaultIntervals()
	if len(intervals) != 4 {
		t.Fatalf("expected 4 intervals, got %d", len(intervals))
	}

	// Display order runs widest to narrowest
	if intervals[0].Ratio != 2.0 {
		t.Errorf("expected octave first, got %s", intervals[0].Name)
	}
	if intervals[3].Ratio != 1.25 {
		t.Errorf("expected major third last, got %s", intervals[3].Name)
	}

	for _, interval := range intervals {
		if interval.Name == "" || interval.Color == "" {
			t.Errorf("interval %+v missing name or color", interval)
		}
		if interval.Ratio <= 1.0 {
			t.Errorf("interval %s has non-ascending ratio %f", interval.Name, interval.Ratio)
		}
	}
}

func TestGrid(t *testing.T) {
	xs := Grid(0, MaxDelta, GridPoints)
	if len(xs) != GridPoints {
		t.Fatalf("expected %d points, got %d", GridPoints, len(xs))
	}
	if xs[0] != 0 {
		t.Errorf("expected grid to start at 0, got %f", xs[0])
	}
	if math.Abs(xs[len(xs)-1]-MaxDelta) > 1e-9 {
		t.Errorf("expected grid to end at %f, got %f", MaxDelta, xs[len(xs)-1])
	}

	step := xs[1] - xs[0]
	for i := 1; i < len(xs); i++ {
		if math.Abs((xs[i]-xs[i-1])-step) > 1e-9 {
			t.Fatalf("uneven grid spacing at index %d", i)
		}
	}
}
