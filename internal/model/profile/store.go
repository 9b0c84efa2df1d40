package profile

// Store exposes profile retrieval for HTTP handlers.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
	Resolve(id string) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice. The profile with
// DefaultID, or else the first one, answers requests that name none.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	return &MemoryStore{items: append([]Profile(nil), items...)}
}

// List returns the configured profiles.
func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

// FindByID looks up a profile by identifier.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Profile{}, false
}

// Default returns the profile used when a client does not pick one.
func (s *MemoryStore) Default() (Profile, bool) {
	if p, ok := s.FindByID(DefaultID); ok {
		return p, true
	}
	if len(s.items) == 0 {
		return Profile{}, false
	}
	return s.items[0], true
}

// Resolve is FindByID, except that an empty id selects the default profile.
func (s *MemoryStore) Resolve(id string) (Profile, bool) {
	if id == "" {
		return s.Default()
	}
	return s.FindByID(id)
}
