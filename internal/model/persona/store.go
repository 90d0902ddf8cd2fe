package persona

// Store exposes assistant profile retrieval for handlers and services.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	Default() Persona
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items     []Persona
	defaultID string
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
// The first item is the default unless WithDefault picks another.
func NewMemoryStore(items []Persona) *MemoryStore {
	s := &MemoryStore{items: append([]Persona(nil), items...)}
	if len(s.items) > 0 {
		s.defaultID = s.items[0].ID
	}
	return s
}

// WithDefault selects the default persona when id is known.
func (s *MemoryStore) WithDefault(id string) *MemoryStore {
	if _, ok := s.FindByID(id); ok {
		s.defaultID = id
	}
	return s
}

// List returns every known persona.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Default returns the persona greeting new sessions. An empty store falls
// back to the built-in seed.
func (s *MemoryStore) Default() Persona {
	if p, ok := s.FindByID(s.defaultID); ok {
		return p
	}
	return Seed()[0]
}
