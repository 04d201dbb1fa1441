package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachAiLabel_PicksNearestCentre(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{
		det("car", 0.9, 0.05, 0.05, 0.1, 0.1),   // centre (0.1, 0.1)
		det("person", 0.9, 0.42, 0.4, 0.1, 0.1), // centre (0.47, 0.45)
	}, t0)

	id, ok := tr.AttachAiLabel(AnyClass, "X", "#fff", "", t0)

	require.True(t, ok)
	assert.Equal(t, "obj_2", id)
	trk := tr.Store().Get("obj_2")
	assert.Equal(t, "X", trk.Label)
	assert.Equal(t, "#fff", trk.Color)
	assert.True(t, trk.IsAiAttached)
	assert.True(t, trk.IsAnalyzed)
	assert.Equal(t, 250.0, trk.FocusProgress)
	assert.Equal(t, t0.Add(30*time.Second), trk.LastUpdate)
	assert.Empty(t, trk.Description, "empty description leaves existing value")

	other := tr.Store().Get("obj_1")
	assert.False(t, other.IsAiAttached)
	assert.Equal(t, "VEHICLE_LIGHT", other.Label)
}

func TestAttachAiLabel_ClassFilter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		target string
		wantID string
		wantOK bool
	}{
		{"exact class", "car", "obj_1", true},
		{"substring class", "ca", "obj_1", true},
		{"any picks nearest", AnyClass, "obj_2", true},
		{"unknown class", "dog", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTracker(t)
			tr.Ingest([]Detection{
				det("car", 0.9, 0.05, 0.05, 0.1, 0.1),
				det("person", 0.9, 0.45, 0.45, 0.1, 0.1),
			}, t0)

			id, ok := tr.AttachAiLabel(tt.target, "LBL", "#123456", "note", t0)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if ok {
				assert.Equal(t, "note", tr.Store().Get(id).Description)
			}
		})
	}
}

func TestAttachAiLabel_EmptyStore(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	id, ok := tr.AttachAiLabel(AnyClass, "X", "#fff", "", t0)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Equal(t, uint64(0), tr.Stats().Attachments)
}

func TestAttachAiLabel_FarTracksAreIneligible(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	// Smoothed centre outside the frame, more than 1.0 from screen centre.
	id := tr.AddTrack(&Track{Class: "car"})
	trk := tr.Store().Get(id)
	trk.Smoothed.X, trk.Smoothed.Y = 1.4, 1.4

	_, ok := tr.AttachAiLabel(AnyClass, "X", "#fff", "", t0)
	assert.False(t, ok)
}

func TestAttachAiLabel_OverridesDwellMachine(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{centred()}, t0)

	_, ok := tr.AttachAiLabel("person", "OPERATOR", "#00FFFF", "friendly", t0)
	require.True(t, ok)

	fired := advanceN(tr, 100, 10*time.Millisecond)
	assert.Empty(t, fired, "dwell logic must not re-trigger after attachment")

	trk := tr.Store().Get("obj_1")
	assert.Equal(t, "friendly", trk.Description)
	assert.Equal(t, "#00FFFF", trk.Color, "lock placeholder does not repaint")
	assert.Equal(t, FocusAnalyzed, trk.FocusState())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	tr := newTestTracker(t)
	tr.Ingest([]Detection{centred(), det("car", 0.8, 0.0, 0.0, 0.1, 0.1)}, t0)
	advanceN(tr, 16, 10*time.Millisecond)

	s1 := tr.Snapshot(t0)
	s2 := tr.Snapshot(t0.Add(time.Second))

	assert.Equal(t, s1.Seq+1, s2.Seq)
	assert.Equal(t, 250.0, s1.DwellThresholdMs)
	require.Len(t, s1.Tracks, 2)
	assert.Len(t, s1.Detections, 2)

	v, ok := s1.Track("obj_1")
	require.True(t, ok)
	assert.Equal(t, FocusPendingAnalysis, v.FocusState)
	assert.True(t, v.IsAnalysisPending)
	assert.Len(t, v.SegmentPoints, 4)

	_, ok = s1.Track("missing")
	assert.False(t, ok)

	// Later mutation does not leak into earlier snapshots.
	advanceN(tr, 20, 10*time.Millisecond)
	v, _ = s1.Track("obj_1")
	assert.False(t, v.IsAnalyzed)
}
