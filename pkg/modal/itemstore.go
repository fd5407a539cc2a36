package modal

import (
	"github.com/facette/natsort"

	"github.com/modaltools/modaldb/mdbapi"
)

// ItemStore is the storage-mode-agnostic contract for item access.
//
// A store only recognizes the keys its schema assigns to its own mode;
// operations on any other key fail with modaldb-error-no-such-item.
// The nil interface value is the absence sentinel throughout: Get may return
// it, and a memory-mode Delete stores it rather than removing the key.
type ItemStore interface {
	// Mode reports the storage mode this store was constructed for.
	Mode() mdbapi.StorageMode

	// Contains reports whether the key belongs to this store's declared key
	// set.  This is a static schema fact, independent of presence.
	Contains(key mdbapi.ItemKey) bool

	// Get returns the item's value, which may be the nil absence sentinel.
	//
	// Errors:
	//
	//    - modaldb-error-no-such-item -- when the key is not declared for this store
	//    - modaldb-error-io -- when loading a disk item fails
	Get(key mdbapi.ItemKey) (interface{}, error)

	// Set stores the item's value, persisting eagerly in disk mode.
	//
	// Errors:
	//
	//    - modaldb-error-no-such-item -- when the key is not declared for this store
	//    - modaldb-error-item-readonly -- when the key's schema declares no save func
	//    - modaldb-error-io -- when persisting a disk item fails
	Set(key mdbapi.ItemKey, value interface{}) error

	// Delete marks the item absent, removing the backing file in disk mode.
	// Disk deletes are not idempotent: deleting an absent item fails.
	//
	// Errors:
	//
	//    - modaldb-error-no-such-item -- when the key is not declared for this store
	//    - modaldb-error-io -- when removing the backing file fails (including when it does not exist)
	Delete(key mdbapi.ItemKey) error

	// Present recomputes whether the item currently has a materialized value.
	//
	// Errors:
	//
	//    - modaldb-error-no-such-item -- when the key is not declared for this store
	//    - modaldb-error-io -- when the backing file cannot be statted
	Present(key mdbapi.ItemKey) (bool, error)

	// PresentItems recomputes presence for every declared key and returns the
	// present subset in natural order.
	PresentItems() []mdbapi.ItemKey

	// AbsentItems is the complement of PresentItems within the declared key set.
	AbsentItems() []mdbapi.ItemKey
}

// NewStore constructs the item store variant for the given storage mode,
// seeded from a backing document snapshot.
//
// Errors:
//
//    - modaldb-error-schema-invalid -- when the mode is unknown or the schema's disk specs are incoherent
func NewStore(mode mdbapi.StorageMode, schema mdbapi.Schema, doc mdbapi.Document) (ItemStore, error) {
	switch mode {
	case mdbapi.ModeMemory:
		return NewMemoryStore(schema, doc), nil
	case mdbapi.ModeDisk:
		return NewDiskStore(schema, doc)
	default:
		return nil, mdbapi.ErrorSchemaInvalid(string(mode), "unknown storage mode")
	}
}

// keySet is the schema-declared key set shared by every store variant,
// together with the write-time presence flags.
type keySet struct {
	mode  mdbapi.StorageMode
	keys  map[mdbapi.ItemKey]struct{}
	flags map[mdbapi.ItemKey]bool
}

func newKeySet(schema mdbapi.Schema, mode mdbapi.StorageMode) keySet {
	ks := keySet{
		mode:  mode,
		keys:  map[mdbapi.ItemKey]struct{}{},
		flags: map[mdbapi.ItemKey]bool{},
	}
	for _, k := range schema.Keys(mode) {
		ks.keys[k] = struct{}{}
	}
	return ks
}

func (ks keySet) Mode() mdbapi.StorageMode {
	return ks.mode
}

func (ks keySet) Contains(key mdbapi.ItemKey) bool {
	_, ok := ks.keys[key]
	return ok
}

// expect returns the unknown-key error for keys outside the declared set.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
func (ks keySet) expect(key mdbapi.ItemKey) error {
	if !ks.Contains(key) {
		return mdbapi.ErrorNoSuchItem(key)
	}
	return nil
}

// list returns the declared keys in natural order.
func (ks keySet) list() []mdbapi.ItemKey {
	strs := make([]string, 0, len(ks.keys))
	for k := range ks.keys {
		strs = append(strs, string(k))
	}
	natsort.Sort(strs)
	keys := make([]mdbapi.ItemKey, 0, len(strs))
	for _, s := range strs {
		keys = append(keys, mdbapi.ItemKey(s))
	}
	return keys
}

// partition refreshes the write-time flags from the given presence predicate
// and splits the declared keys into present and absent subsets.
func (ks keySet) partition(presentNow func(mdbapi.ItemKey) bool) (present, absent []mdbapi.ItemKey) {
	for _, k := range ks.list() {
		p := presentNow(k)
		ks.flags[k] = p
		if p {
			present = append(present, k)
		} else {
			absent = append(absent, k)
		}
	}
	return present, absent
}
