package modal

import (
	"github.com/modaltools/modaldb/mdbapi"
)

// MemoryStore holds item values entirely in process memory.
//
// The nil sentinel does double duty here: a key that was never set and a key
// whose value was deleted are indistinguishable.  That ambiguity is inherited
// behavior which callers may rely on, so it is documented rather than fixed;
// Delete followed by Get observably equals Set with a nil value.
type MemoryStore struct {
	keySet
	data map[mdbapi.ItemKey]interface{}
}

var _ ItemStore = (*MemoryStore)(nil)

// NewMemoryStore seeds a memory store from the document's item data.
// Document data is copied in once; the store keeps no reference to the
// document afterwards.
func NewMemoryStore(schema mdbapi.Schema, doc mdbapi.Document) *MemoryStore {
	s := &MemoryStore{
		keySet: newKeySet(schema, mdbapi.ModeMemory),
		data:   map[mdbapi.ItemKey]interface{}{},
	}
	for k := range s.keys {
		meta := doc.ItemMetaFor(k)
		if meta.Data != nil {
			s.data[k] = *meta.Data
		} else {
			s.data[k] = nil
		}
		s.flags[k] = s.data[k] != nil
	}
	return s
}

// Get returns the stored value, which may be the nil sentinel.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
func (s *MemoryStore) Get(key mdbapi.ItemKey) (interface{}, error) {
	if err := s.expect(key); err != nil {
		return nil, err
	}
	return s.data[key], nil
}

// Set replaces the stored value.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
func (s *MemoryStore) Set(key mdbapi.ItemKey, value interface{}) error {
	if err := s.expect(key); err != nil {
		return err
	}
	s.flags[key] = true
	s.data[key] = value
	return nil
}

// Delete replaces the stored value with the nil sentinel.
// This is not a true removal; see the type documentation.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
func (s *MemoryStore) Delete(key mdbapi.ItemKey) error {
	if err := s.expect(key); err != nil {
		return err
	}
	s.flags[key] = false
	s.data[key] = nil
	return nil
}

// Present reports whether the stored value is not the nil sentinel.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
func (s *MemoryStore) Present(key mdbapi.ItemKey) (bool, error) {
	if err := s.expect(key); err != nil {
		return false, err
	}
	return s.presentNow(key), nil
}

func (s *MemoryStore) presentNow(key mdbapi.ItemKey) bool {
	return s.data[key] != nil
}

func (s *MemoryStore) PresentItems() []mdbapi.ItemKey {
	present, _ := s.partition(s.presentNow)
	return present
}

func (s *MemoryStore) AbsentItems() []mdbapi.ItemKey {
	_, absent := s.partition(s.presentNow)
	return absent
}
