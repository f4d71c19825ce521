// Package streamstats computes approximate statistical summaries over
// unbounded streams of numeric measurements with bounded memory.
//
// The core pieces:
//
//   - Summary: a CKMS quantile sketch answering quantile queries within
//     a caller-declared relative rank error, plus exact running
//     count/sum/min/max/mean/variance.
//   - WindowedSample: two Summaries rotated across fixed-duration,
//     boundary-aligned time buckets; snapshots always expose one
//     complete window of history rather than a partially filled bucket.
//   - Snapshot: an immutable read view over either a raw value set or
//     a quantile summary, with a unit divisor applied at read time.
//
// A Summary has no internal locking and must be serialized by its
// owner. A WindowedSample serializes all readers and writers behind a
// single mutex. Timestamps fed to a WindowedSample must be
// non-decreasing; a regression is rejected with ErrOutOfOrderTimestamp
// before any state changes.
package streamstats
