// Package monitoring owns the process-wide log streams.
//
// There are three streams:
//   - ops: actionable warnings, errors and data loss
//   - diag: lifecycle diagnostics and tuning context
//   - trace: high-frequency per-batch / per-tick telemetry
//
// Streams are disabled until a writer is installed with SetLogWriters or
// SetLevel. Packages obtain a prefixed handle with NewComponent.
package monitoring

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync/atomic"
)

var (
	opsLogger   atomic.Pointer[log.Logger]
	diagLogger  atomic.Pointer[log.Logger]
	traceLogger atomic.Pointer[log.Logger]
)

// Level selects how many streams SetLevel enables.
type Level int

const (
	LevelOps Level = iota
	LevelDiag
	LevelTrace
)

// ParseLevel maps "ops", "diag" or "trace" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ops", "":
		return LevelOps, nil
	case "diag":
		return LevelDiag, nil
	case "trace":
		return LevelTrace, nil
	}
	return LevelOps, fmt.Errorf("unknown log level %q (want ops, diag or trace)", s)
}

// SetLogWriters configures the three streams. Pass nil to disable a stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger.Store(newLogger(ops))
	diagLogger.Store(newLogger(diag))
	traceLogger.Store(newLogger(trace))
}

// SetLevel routes every stream up to and including level to w.
func SetLevel(w io.Writer, level Level) {
	var diag, trace io.Writer
	if level >= LevelDiag {
		diag = w
	}
	if level >= LevelTrace {
		trace = w
	}
	SetLogWriters(w, diag, trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

// Component is a named handle onto the shared streams.
type Component struct {
	prefix string
}

// NewComponent returns a handle whose lines are prefixed with "[name] ".
func NewComponent(name string) Component {
	return Component{prefix: "[" + name + "] "}
}

// Opsf logs to the ops stream.
func (c Component) Opsf(format string, args ...interface{}) {
	c.emit(opsLogger.Load(), format, args)
}

// Diagf logs to the diag stream.
func (c Component) Diagf(format string, args ...interface{}) {
	c.emit(diagLogger.Load(), format, args)
}

// Tracef logs to the trace stream.
func (c Component) Tracef(format string, args ...interface{}) {
	c.emit(traceLogger.Load(), format, args)
}

// TraceEnabled reports whether the trace stream has a writer, so callers can
// skip building expensive trace lines.
func (c Component) TraceEnabled() bool {
	return traceLogger.Load() != nil
}

func (c Component) emit(l *log.Logger, format string, args []interface{}) {
	if l == nil {
		return
	}
	l.Printf(c.prefix+format, args...)
}
