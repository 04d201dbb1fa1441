package tracking

// Store holds live tracks keyed by id and remembers insertion order so that
// iteration, and therefore association tie-breaking, is deterministic.
//
// Store is not safe for concurrent use; the Tracker serialises access.
type Store struct {
	tracks map[string]*Track
	order  []string
}

// NewStore creates an empty track store.
func NewStore() *Store {
	return &Store{tracks: make(map[string]*Track)}
}

// Get returns the track with the given id, or nil if absent.
func (s *Store) Get(id string) *Track {
	return s.tracks[id]
}

// Upsert inserts or replaces the track stored under id. Replacing keeps the
// original insertion position.
func (s *Store) Upsert(id string, t *Track) {
	if _, exists := s.tracks[id]; !exists {
		s.order = append(s.order, id)
	}
	s.tracks[id] = t
}

// Remove deletes the track with the given id. Missing ids are ignored.
func (s *Store) Remove(id string) {
	if _, exists := s.tracks[id]; !exists {
		return
	}
	delete(s.tracks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// ForEach visits tracks in insertion order. The visitor must not add or
// remove tracks; collect ids and mutate after the walk.
func (s *Store) ForEach(fn func(t *Track)) {
	for _, id := range s.order {
		fn(s.tracks[id])
	}
}

// Len returns the number of live tracks.
func (s *Store) Len() int {
	return len(s.tracks)
}

// Snapshot returns read-only copies of every track in insertion order.
func (s *Store) Snapshot() []TrackView {
	views := make([]TrackView, 0, len(s.order))
	s.ForEach(func(t *Track) {
		views = append(views, viewOf(t))
	})
	return views
}
