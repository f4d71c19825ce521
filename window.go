package streamstats

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is the default bucket duration of a WindowedSample.
const DefaultWindow = 30 * time.Second

// ErrOutOfOrderTimestamp is returned when an update or snapshot
// carries a timestamp earlier than one already observed. Window
// rotation relies on non-decreasing time, so the call is rejected
// before any state changes.
var ErrOutOfOrderTimestamp = errors.New("timestamp earlier than last observed")

// WindowedSample aggregates measurements into non-overlapping,
// boundary-aligned time buckets of fixed duration. It owns two
// summaries, the open bucket and the last sealed one, and rotates them
// as timestamps advance. Snapshots always expose one complete window
// of history: the sealed bucket, never the partially filled one.
//
// All methods are safe for concurrent use; a single mutex serializes
// readers and writers. Timestamps across successive calls must be
// non-decreasing.
type WindowedSample struct {
	mu sync.Mutex

	cur      *Summary
	prev     *Summary
	curBegin time.Time
	window   time.Duration
	last     time.Time
	clock    Clock
}

// NewWindowedSample returns a sample with the given bucket duration,
// which must be a whole, positive number of seconds. Empty targets
// select the defaults.
func NewWindowedSample(window time.Duration, targets []Target) (*WindowedSample, error) {
	return NewWindowedSampleWithClock(window, targets, SystemClock{})
}

// NewWindowedSampleWithClock is NewWindowedSample with an injected
// time source.
func NewWindowedSampleWithClock(window time.Duration, targets []Target, clock Clock) (*WindowedSample, error) {
	if window < time.Second || window%time.Second != 0 {
		return nil, fmt.Errorf("window %s: must be a whole number of seconds", window)
	}
	return &WindowedSample{
		cur:    NewSummary(targets...),
		prev:   NewSummary(targets...),
		window: window,
		clock:  clock,
	}, nil
}

// NewDefaultWindowedSample returns a sample with the default 30s
// window and default quantile targets.
func NewDefaultWindowedSample() *WindowedSample {
	s, _ := NewWindowedSample(DefaultWindow, DefaultTargets())
	return s
}

// Update records a value at the clock's current time.
func (w *WindowedSample) Update(value int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.update(value, w.clock.Now())
}

// UpdateAt records a value at the given timestamp.
func (w *WindowedSample) UpdateAt(value int64, ts time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.update(value, ts)
}

func (w *WindowedSample) update(value int64, ts time.Time) error {
	if err := w.advance(ts); err != nil {
		return err
	}
	w.cur.Insert(float64(value))
	return nil
}

// Snapshot returns a snapshot of the last fully closed window as of
// the clock's current time.
func (w *WindowedSample) Snapshot(divisor uint64) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot(w.clock.Now(), divisor)
}

// SnapshotAt returns a snapshot of the last fully closed window as of
// the given timestamp.
func (w *WindowedSample) SnapshotAt(ts time.Time, divisor uint64) (*Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot(ts, divisor)
}

func (w *WindowedSample) snapshot(ts time.Time, divisor uint64) (*Snapshot, error) {
	if err := w.advance(ts); err != nil {
		return nil, err
	}
	return newSummarySnapshot(w.prev.cloneFlushed(), divisor), nil
}

// Size reports the element count of the snapshot that would be
// returned at the clock's current time.
func (w *WindowedSample) Size() (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size(w.clock.Now())
}

// SizeAt reports the element count of the snapshot that would be
// returned for the given timestamp.
func (w *WindowedSample) SizeAt(ts time.Time) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size(ts)
}

func (w *WindowedSample) size(ts time.Time) (uint64, error) {
	if err := w.advance(ts); err != nil {
		return 0, err
	}
	return w.prev.Count(), nil
}

// Clear resets both buckets and the window alignment.
func (w *WindowedSample) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prev.Reset()
	w.cur.Reset()
	w.curBegin = time.Time{}
	w.last = time.Time{}
}

// advance applies the rotation decision shared by updates and
// snapshots: the bucket holding ts stays or becomes current, the
// bucket it displaces becomes previous, and anything older is
// discarded, never merged.
func (w *WindowedSample) advance(ts time.Time) error {
	if ts.Before(w.last) {
		return fmt.Errorf("%w: %v < %v", ErrOutOfOrderTimestamp, ts, w.last)
	}
	w.last = ts

	switch {
	case w.inCurrentWindow(ts):
		// Still inside the open bucket.
	case w.inNextWindow(ts):
		// The current bucket becomes the previous one. Ownership
		// transfer is a slot swap, never a copy.
		w.prev, w.cur = w.cur, w.prev
		w.cur.Reset()
		w.curBegin = w.curBegin.Add(w.window)
	default:
		// A gap of two or more windows: both buckets are stale.
		w.prev.Reset()
		w.cur.Reset()
		w.curBegin = w.windowStart(ts)
	}
	return nil
}

func (w *WindowedSample) inCurrentWindow(ts time.Time) bool {
	return !ts.Before(w.curBegin) && ts.Before(w.curBegin.Add(w.window))
}

func (w *WindowedSample) inNextWindow(ts time.Time) bool {
	next := w.curBegin.Add(w.window)
	return !ts.Before(next) && ts.Before(next.Add(w.window))
}

// windowStart aligns ts down to its bucket boundary. Alignment is
// defined in whole seconds since the Unix epoch.
func (w *WindowedSample) windowStart(ts time.Time) time.Time {
	sec := ts.Unix()
	size := int64(w.window / time.Second)
	return time.Unix(sec-sec%size, 0)
}
