package detect

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/banshee-data/focus.overlay/internal/geom"
	"github.com/banshee-data/focus.overlay/internal/tracking"
)

// Frame is one recorded detector batch as stored in a JSON-lines file:
//
//	{"ts_ms": 1700000000123, "detections": [{"class": "person", "score": 0.9, "bbox": [x, y, w, h]}]}
type Frame struct {
	TimestampMs int64            `json:"ts_ms"`
	Detections  []FrameDetection `json:"detections"`
}

// FrameDetection is one detection inside a Frame.
type FrameDetection struct {
	Class string    `json:"class"`
	Score float64   `json:"score"`
	BBox  []float64 `json:"bbox"`
}

// Timestamp returns the frame time.
func (f Frame) Timestamp() time.Time {
	return time.UnixMilli(f.TimestampMs)
}

// Batch converts the frame to tracker detections.
func (f Frame) Batch() []tracking.Detection {
	ts := f.Timestamp()
	out := make([]tracking.Detection, 0, len(f.Detections))
	for _, d := range f.Detections {
		out = append(out, tracking.Detection{
			Class:     d.Class,
			Score:     d.Score,
			Box:       geom.BoxFromSlice(d.BBox),
			Timestamp: ts,
		})
	}
	return out
}

// ReadFrames parses a JSON-lines stream. Blank lines are skipped; a
// malformed line is an error naming its line number.
func ReadFrames(r io.Reader) ([]Frame, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var frames []Frame
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i, d := range f.Detections {
			if len(d.BBox) != 4 {
				return nil, fmt.Errorf("line %d: detection %d: bbox has %d values, want 4", line, i, len(d.BBox))
			}
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	return frames, nil
}

// ReplayDetector returns recorded frames one per Detect call.
type ReplayDetector struct {
	mu     sync.Mutex
	frames []Frame
	next   int
	loop   bool
}

// NewReplayDetector replays frames in order. With loop set it restarts
// from the first frame instead of returning ErrReplayExhausted.
func NewReplayDetector(frames []Frame, loop bool) *ReplayDetector {
	return &ReplayDetector{frames: frames, loop: loop}
}

// OpenReplay loads a JSON-lines recording from path.
func OpenReplay(path string, loop bool) (*ReplayDetector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()
	frames, err := ReadFrames(f)
	if err != nil {
		return nil, fmt.Errorf("parse replay %s: %w", path, err)
	}
	return NewReplayDetector(frames, loop), nil
}

// Detect returns the next recorded batch.
func (d *ReplayDetector) Detect(ctx context.Context) ([]tracking.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.next >= len(d.frames) {
		if !d.loop || len(d.frames) == 0 {
			return nil, ErrReplayExhausted
		}
		d.next = 0
	}
	f := d.frames[d.next]
	d.next++
	return f.Batch(), nil
}

// Len returns the number of recorded frames.
func (d *ReplayDetector) Len() int {
	return len(d.frames)
}

// Recorder writes detector batches as JSON lines.
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewRecorder writes to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// Write appends one frame.
func (r *Recorder) Write(ts time.Time, dets []tracking.Detection) error {
	f := Frame{TimestampMs: ts.UnixMilli(), Detections: make([]FrameDetection, 0, len(dets))}
	for _, d := range dets {
		f.Detections = append(f.Detections, FrameDetection{
			Class: d.Class,
			Score: d.Score,
			BBox:  []float64{d.Box.X, d.Box.Y, d.Box.W, d.Box.H},
		})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(f)
}

// Recording wraps a detector and records every successful batch.
type Recording struct {
	Detector Detector
	Recorder *Recorder
	Now      func() time.Time
}

// Detect forwards to the wrapped detector and records its output. A failed
// write is logged; the batch is still returned.
func (r *Recording) Detect(ctx context.Context) ([]tracking.Detection, error) {
	dets, err := r.Detector.Detect(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	if err := r.Recorder.Write(now(), dets); err != nil {
		detectLog.Opsf("record frame: %v", err)
	}
	return dets, nil
}
