package streamstats

import (
	"fmt"
	"math"
	"sort"
)

// bufferCap is the capacity of the insertion buffer. Raw values are
// staged here and merged into the compressed sample in one sorted
// batch, which amortizes the per-insert cost.
const bufferCap = 500

// Target declares one quantile the sketch must answer accurately:
// queries for Quantile return a value whose true rank is within
// (1±Error)·Quantile·N of the requested rank.
type Target struct {
	Quantile float64
	Error    float64

	// Error-rate constants derived at construction, used by the
	// allowable-error formula below and above the target rank.
	u, v float64
}

func newTarget(quantile, allowedError float64) Target {
	return Target{
		Quantile: quantile,
		Error:    allowedError,
		u:        2 * allowedError / (1 - quantile),
		v:        2 * allowedError / quantile,
	}
}

// NewTarget builds a quantile target. The quantile must be in (0, 1]
// and the error in [0, 1).
func NewTarget(quantile, allowedError float64) (Target, error) {
	if quantile <= 0 || quantile > 1 {
		return Target{}, fmt.Errorf("quantile %v: must be in (0, 1]", quantile)
	}
	if allowedError < 0 || allowedError >= 1 {
		return Target{}, fmt.Errorf("allowed error %v: must be in [0, 1)", allowedError)
	}
	return newTarget(quantile, allowedError), nil
}

// DefaultTargets asks for at most 0.1% rank error at P99 and P50.
func DefaultTargets() []Target {
	return []Target{
		newTarget(0.99, 0.001),
		newTarget(0.5, 0.001),
	}
}

// tuple is one entry of the compressed sample: a retained value, the
// number of ranks collapsed into it since the previous tuple (g), and
// an upper bound on its own rank uncertainty (delta). Tuples are kept
// in ascending value order and the g values sum to the merged count.
type tuple struct {
	value float64
	g     int
	delta int
}

// Summary is a CKMS quantile sketch: it maintains a compact
// approximation of the sorted order of all inserted values, enough to
// answer quantile queries within the configured targets' error bounds,
// while also tracking exact running statistics over every value.
//
// Summary has no internal synchronization. Callers that share one
// across goroutines must serialize access behind a single lock;
// WindowedSample does exactly that.
type Summary struct {
	targets []Target

	merged uint64  // values merged into the sample, excludes buffered
	sample []tuple // ascending by value
	buffer []float64

	// Exact running statistics, updated on every insert regardless of
	// buffer flush state.
	sum  float64
	min  float64
	max  float64
	varM float64 // Welford mean accumulator
	varS float64 // Welford sum-of-squares accumulator
}

// NewSummary returns an empty summary tracking the given targets, or
// the defaults when none are given.
func NewSummary(targets ...Target) *Summary {
	if len(targets) == 0 {
		targets = DefaultTargets()
	}
	return &Summary{
		targets: targets,
		buffer:  make([]float64, 0, bufferCap),
	}
}

// Insert records a value. Running statistics update immediately; the
// value itself is staged and merged into the sample once the buffer
// fills.
func (s *Summary) Insert(value float64) {
	s.observe(value)
	s.buffer = append(s.buffer, value)
	if len(s.buffer) == cap(s.buffer) {
		s.insertBatch()
		s.compress()
	}
}

// observe folds a value into the exact running statistics.
func (s *Summary) observe(v float64) {
	if s.Count() == 0 {
		s.min = v
		s.max = v
	} else {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	s.sum += v

	n := float64(s.Count() + 1)
	if n > 1 {
		oldM := s.varM
		s.varM = oldM + (v-oldM)/n
		s.varS += (v - oldM) * (v - s.varM)
	} else {
		s.varM = v
	}
}

// Query returns the estimate for quantile q, forcing a flush of the
// insertion buffer first. An empty summary returns 0.
func (s *Summary) Query(q float64) float64 {
	s.flush()
	return s.query(q)
}

func (s *Summary) flush() {
	if s.insertBatch() {
		s.compress()
	}
}

// query performs the lookup walk without mutating the summary. The
// buffer must already be flushed.
func (s *Summary) query(q float64) float64 {
	if len(s.sample) == 0 {
		return 0
	}

	desired := int(q * float64(s.merged))
	bound := float64(desired) + s.allowableError(desired)/2

	rankMin := 0
	for i := 1; i < len(s.sample); i++ {
		rankMin += s.sample[i-1].g
		if float64(rankMin+s.sample[i].g+s.sample[i].delta) > bound {
			return s.sample[i-1].value
		}
	}
	return s.sample[len(s.sample)-1].value
}

// Reset returns the summary to its empty state without releasing the
// backing storage, so the summary can be reused in place.
func (s *Summary) Reset() {
	s.merged = 0
	s.sample = s.sample[:0]
	s.buffer = s.buffer[:0]
	s.sum = 0
	s.min = 0
	s.max = 0
	s.varM = 0
	s.varS = 0
}

// Count returns the number of values inserted, including those still
// in the insertion buffer.
func (s *Summary) Count() uint64 {
	return s.merged + uint64(len(s.buffer))
}

// Sum returns the exact sum of all inserted values.
func (s *Summary) Sum() float64 {
	return s.sum
}

// Min returns the smallest inserted value, 0 when empty.
func (s *Summary) Min() float64 {
	if s.Count() == 0 {
		return 0
	}
	return s.min
}

// Max returns the largest inserted value, 0 when empty.
func (s *Summary) Max() float64 {
	if s.Count() == 0 {
		return 0
	}
	return s.max
}

// Mean returns the arithmetic mean, 0 when empty.
func (s *Summary) Mean() float64 {
	if s.Count() == 0 {
		return 0
	}
	return s.sum / float64(s.Count())
}

// Variance returns the unbiased sample variance, 0 with fewer than two
// values.
func (s *Summary) Variance() float64 {
	n := s.Count()
	if n < 2 {
		return 0
	}
	return s.varS / float64(n-1)
}

// StdDev returns the sample standard deviation, 0 with fewer than two
// values.
func (s *Summary) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// allowableError returns the rank error tolerated at the given rank,
// the minimum over all targets of two linear formulas split at the
// target rank. With no targets the result is size+1, which never
// permits a merge. Negative ranks are clamped to 0; ranks beyond the
// sample size are legitimate (query ranks live in element space) and
// fall into the v-branch.
func (s *Summary) allowableError(rank int) float64 {
	size := len(s.sample)
	if rank < 0 {
		rank = 0
	}

	minErr := float64(size + 1)
	for _, t := range s.targets {
		var e float64
		if float64(rank) <= t.Quantile*float64(size) {
			e = t.u * float64(size-rank)
		} else {
			e = t.v * float64(rank)
		}
		if e < minErr {
			minErr = e
		}
	}
	return minErr
}

// insertBatch sorts the buffered values and merges them into the
// sample in a single forward scan. Reports whether anything was
// merged.
func (s *Summary) insertBatch() bool {
	if len(s.buffer) == 0 {
		return false
	}
	sort.Float64s(s.buffer)

	start := 0
	if len(s.sample) == 0 {
		s.sample = append(s.sample, tuple{value: s.buffer[0], g: 1})
		s.merged++
		start = 1
	}

	idx := 0
	for _, v := range s.buffer[start:] {
		for idx < len(s.sample) && s.sample[idx].value < v {
			idx++
		}

		// A tuple inserted at either end has an exactly known rank
		// and must stay that way, so its delta is 0.
		delta := 0
		if idx > 0 && idx < len(s.sample) {
			delta = int(math.Floor(s.allowableError(idx+1))) + 1
		}

		s.sample = append(s.sample, tuple{})
		copy(s.sample[idx+1:], s.sample[idx:])
		s.sample[idx] = tuple{value: v, g: 1, delta: delta}
		s.merged++
		idx++
	}

	s.buffer = s.buffer[:0]
	return true
}

// compress walks the sample once left to right, absorbing each tuple
// into its right neighbor whenever the combined rank uncertainty stays
// within the allowable error at that rank. This is what bounds the
// sample size while preserving the rank-error guarantee.
func (s *Summary) compress() {
	if len(s.sample) < 2 {
		return
	}

	i := 0
	for i+1 < len(s.sample) {
		cur := s.sample[i]
		next := s.sample[i+1]
		if float64(cur.g+next.g+next.delta) <= s.allowableError(i+1) {
			s.sample[i+1].g += cur.g
			s.sample = append(s.sample[:i], s.sample[i+1:]...)
		}
		i++
	}
}

// cloneFlushed flushes the receiver and returns an independent copy
// suitable for read-only use; the copy shares no mutable state with
// the receiver.
func (s *Summary) cloneFlushed() *Summary {
	s.flush()
	return &Summary{
		targets: s.targets,
		merged:  s.merged,
		sample:  append([]tuple(nil), s.sample...),
		sum:     s.sum,
		min:     s.min,
		max:     s.max,
		varM:    s.varM,
		varS:    s.varS,
	}
}
