package streamstats

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/beorn7/perks/quantile"
)

// relDiff returns |a-b| relative to |b|.
func relDiff(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(math.Abs(b), 1)
}

// TestSummaryMatchesReferenceSketches feeds the same uniform stream to
// this package's summary, a perks targeted quantile stream, and a
// DDSketch, and checks all three against the exact order statistics.
// The two reference sketches carry different guarantees (rank error
// for perks, relative value error for DDSketch), so each gets its own
// tolerance.
func TestSummaryMatchesReferenceSketches(t *testing.T) {
	const (
		n        = 100000
		maxError = 0.001
	)
	quantiles := []float64{0.5, 0.9, 0.99}

	targets := make([]Target, 0, len(quantiles))
	perksTargets := make(map[float64]float64, len(quantiles))
	for _, q := range quantiles {
		target, err := NewTarget(q, maxError)
		if err != nil {
			t.Fatalf("NewTarget(%v, %v): %v", q, maxError, err)
		}
		targets = append(targets, target)
		perksTargets[q] = maxError
	}

	summary := NewSummary(targets...)
	stream := quantile.NewTargeted(perksTargets)
	sketch, err := ddsketch.NewDefaultDDSketch(0.01)
	if err != nil {
		t.Fatalf("NewDefaultDDSketch: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := 1 + rng.Float64()*1e6
		values = append(values, v)
		summary.Insert(v)
		stream.Insert(v)
		if err := sketch.Add(v); err != nil {
			t.Fatalf("DDSketch.Add: %v", err)
		}
	}
	sort.Float64s(values)

	for _, q := range quantiles {
		exact := values[int(q*n)-1]
		// Generous rank band: twice the declared error on either side.
		lo := values[int((q-2*maxError)*n)]
		hi := values[int((q+2*maxError)*n)]

		got := summary.Query(q)
		if got < lo || got > hi {
			t.Errorf("summary q=%v: got %v, want within [%v, %v]", q, got, lo, hi)
		}

		ref := stream.Query(q)
		if ref < lo || ref > hi {
			t.Errorf("perks q=%v: got %v, want within [%v, %v]", q, ref, lo, hi)
		}

		dd, err := sketch.GetValueAtQuantile(q)
		if err != nil {
			t.Fatalf("GetValueAtQuantile(%v): %v", q, err)
		}
		if relDiff(dd, exact) > 0.02 {
			t.Errorf("ddsketch q=%v: got %v, want within 2%% of %v", q, dd, exact)
		}

		// All three estimators must be telling the same story.
		if relDiff(got, ref) > 0.05 {
			t.Errorf("q=%v: summary %v and perks %v disagree by more than 5%%", q, got, ref)
		}
		if relDiff(got, dd) > 0.05 {
			t.Errorf("q=%v: summary %v and ddsketch %v disagree by more than 5%%", q, got, dd)
		}
	}
}
