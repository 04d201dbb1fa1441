// Package tracking owns the overlay's multi-object tracking state.
//
// Responsibilities: fusing ~10 Hz detection batches into persistent tracks
// (greedy IOU association), smoothing display geometry at render rate
// (constant-gain predict/correct), the per-track dwell/focus state machine
// that speculatively fires deep analysis, and reconciliation of analysis
// results and external label attachment.
// Key types: Tracker, Track, Store, Snapshot.
//
// The Tracker is safe for concurrent use, but the intended deployment is a
// single owning goroutine (see internal/engine) that serialises ingestion,
// render ticks and analysis completions. Consumers read immutable Snapshot
// values and never hold *Track pointers.
package tracking
