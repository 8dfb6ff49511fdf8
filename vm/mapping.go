package vm

// MappingStore is the persistent per-program key-value state mutated only
// inside finalize execution. Implementations report ErrKeyNotFound from
// Get for absent keys. The sqlite-backed implementation lives in the
// ledger package; MemoryStore below serves embedding and tests.
type MappingStore interface {
	Get(program, mapping string, key Value) (Value, error)
	Contains(program, mapping string, key Value) (bool, error)
	Set(program, mapping string, key, value Value) error
	Remove(program, mapping string, key Value) error
}

// MemoryStore is an in-process MappingStore keyed by canonical key bytes.
type MemoryStore struct {
	mappings map[string]map[string]memoryEntry
}

type memoryEntry struct {
	key   Value
	value Value
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mappings: make(map[string]map[string]memoryEntry)}
}

func mappingID(program, mapping string) string {
	return program + "/" + mapping
}

func (s *MemoryStore) entries(program, mapping string) map[string]memoryEntry {
	id := mappingID(program, mapping)
	m, ok := s.mappings[id]
	if !ok {
		m = make(map[string]memoryEntry)
		s.mappings[id] = m
	}
	return m
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *MemoryStore) Get(program, mapping string, key Value) (Value, error) {
	kb, err := KeyBytes(key)
	if err != nil {
		return nil, err
	}
	entry, ok := s.entries(program, mapping)[string(kb)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return entry.value, nil
}

// Contains reports whether key is present.
func (s *MemoryStore) Contains(program, mapping string, key Value) (bool, error) {
	kb, err := KeyBytes(key)
	if err != nil {
		return false, err
	}
	_, ok := s.entries(program, mapping)[string(kb)]
	return ok, nil
}

// Set writes value under key, replacing any previous entry.
func (s *MemoryStore) Set(program, mapping string, key, value Value) error {
	kb, err := KeyBytes(key)
	if err != nil {
		return err
	}
	s.entries(program, mapping)[string(kb)] = memoryEntry{key: key, value: value}
	return nil
}

// Remove deletes the entry under key, if any.
func (s *MemoryStore) Remove(program, mapping string, key Value) error {
	kb, err := KeyBytes(key)
	if err != nil {
		return err
	}
	delete(s.entries(program, mapping), string(kb))
	return nil
}

// Len returns the number of entries in one mapping.
func (s *MemoryStore) Len(program, mapping string) int {
	return len(s.entries(program, mapping))
}
