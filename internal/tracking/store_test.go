package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_InsertionOrder(t *testing.T) {
	t.Parallel()
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		s.Upsert(id, &Track{ID: id})
	}

	var ids []string
	s.ForEach(func(tr *Track) { ids = append(ids, tr.ID) })
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	// Replacing keeps the original slot.
	s.Upsert("c", &Track{ID: "c", Label: "NEW"})
	ids = ids[:0]
	s.ForEach(func(tr *Track) { ids = append(ids, tr.ID) })
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, "NEW", s.Get("c").Label)
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()
	s := NewStore()
	s.Upsert("a", &Track{ID: "a"})
	s.Upsert("b", &Track{ID: "b"})

	s.Remove("a")
	s.Remove("missing")

	assert.Nil(t, s.Get("a"))
	assert.Equal(t, 1, s.Len())
	views := s.Snapshot()
	if assert.Len(t, views, 1) {
		assert.Equal(t, "b", views[0].ID)
	}
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	t.Parallel()
	s := NewStore()
	tr := &Track{ID: "a", Label: "BIO_UNIT", SegmentPoints: []SegmentPoint{{X: 0.5, Y: 0.5}}}
	s.Upsert("a", tr)

	views := s.Snapshot()
	views[0].SegmentPoints[0].X = 0.9
	views[0].Label = "MUTATED"

	assert.Equal(t, 0.5, tr.SegmentPoints[0].X)
	assert.Equal(t, "BIO_UNIT", tr.Label)
}

func TestDisplayLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		class     string
		overrides map[string]string
		want      string
	}{
		{"known class", "person", nil, "BIO_UNIT"},
		{"multi word class", "cell phone", nil, "COMMS_DEVICE"},
		{"unknown class upper-cased", "drone", nil, "DRONE"},
		{"override wins", "person", map[string]string{"person": "operator"}, "OPERATOR"},
		{"empty override ignored", "car", map[string]string{"car": ""}, "VEHICLE_LIGHT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayLabel(tt.class, tt.overrides))
		})
	}
}
