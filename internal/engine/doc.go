// Package engine runs the overlay's event loop.
//
// A single goroutine owns the tracker and serialises the three timelines:
// detection batches (~10 Hz, produced by a background detector call that is
// skipped while busy), render ticks (~60 Hz) and analysis completions
// (arbitrary latency, produced by the analysis dispatcher). External label
// attachment enters the same loop as a command. Consumers read the latest
// immutable snapshot; they never touch live tracks.
package engine
