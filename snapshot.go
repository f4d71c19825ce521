package streamstats

import (
	"math"
	"sort"
)

// Snapshot is an immutable point-in-time view over a set of
// measurements, backed either by an ordered copy of raw values or by a
// quantile summary. Both backings answer the same read surface. The
// divisor is applied to every value read out, letting a caller record
// in a fine-grained unit and report in a coarser one without touching
// the summary's internal arithmetic.
type Snapshot struct {
	values  []float64 // raw backing, ascending; nil for summary backing
	summary *Summary  // summary backing; nil for raw backing
	divisor float64
}

// NewSnapshot returns a snapshot over an ordered copy of the given
// values. A divisor of 0 is treated as 1.
func NewSnapshot(values []float64, divisor uint64) *Snapshot {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return &Snapshot{values: sorted, divisor: normalizeDivisor(divisor)}
}

// newSummarySnapshot wraps a flushed summary. The summary must not be
// mutated after hand-off; WindowedSample passes an independent copy.
func newSummarySnapshot(s *Summary, divisor uint64) *Snapshot {
	return &Snapshot{summary: s, divisor: normalizeDivisor(divisor)}
}

func normalizeDivisor(d uint64) float64 {
	if d == 0 {
		return 1
	}
	return float64(d)
}

// Size returns the number of measurements behind the snapshot.
func (s *Snapshot) Size() uint64 {
	if s.summary != nil {
		return s.summary.Count()
	}
	return uint64(len(s.values))
}

// Value returns the estimate for quantile q, 0 for an empty snapshot.
func (s *Snapshot) Value(q float64) float64 {
	if s.summary != nil {
		return s.summary.query(q) / s.divisor
	}
	if len(s.values) == 0 {
		return 0
	}
	idx := int(math.Round(q * float64(len(s.values))))
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.values)-1 {
		idx = len(s.values) - 1
	}
	return s.values[idx] / s.divisor
}

// Median returns the 50th percentile estimate.
func (s *Snapshot) Median() float64 { return s.Value(0.5) }

// P75 returns the 75th percentile estimate.
func (s *Snapshot) P75() float64 { return s.Value(0.75) }

// P95 returns the 95th percentile estimate.
func (s *Snapshot) P95() float64 { return s.Value(0.95) }

// P98 returns the 98th percentile estimate.
func (s *Snapshot) P98() float64 { return s.Value(0.98) }

// P99 returns the 99th percentile estimate.
func (s *Snapshot) P99() float64 { return s.Value(0.99) }

// P999 returns the 99.9th percentile estimate.
func (s *Snapshot) P999() float64 { return s.Value(0.999) }

// Max returns the largest recorded value, 0 for an empty snapshot.
func (s *Snapshot) Max() float64 {
	if s.summary != nil {
		return s.summary.Max() / s.divisor
	}
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1] / s.divisor
}

// Values returns an ascending copy of the retained values. For a
// summary backing these are the sketch's support points, not the full
// input stream.
func (s *Snapshot) Values() []float64 {
	if s.summary != nil {
		out := make([]float64, 0, len(s.summary.sample))
		for _, t := range s.summary.sample {
			out = append(out, t.value/s.divisor)
		}
		return out
	}
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = v / s.divisor
	}
	return out
}
