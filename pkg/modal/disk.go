package modal

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/modaltools/modaldb/mdbapi"
)

// DiskStore lazily materializes item values from one file per key.
//
// Reads follow a cache-aside policy: the first Get of a present item invokes
// the key's load func and caches the result; later Gets return the cached
// value.  Writes go through the cache and are persisted immediately by the
// key's save func.  The write is synchronous and not atomic -- there is no
// temp-file-and-rename step -- so a crash mid-write can leave a partial file.
//
// Presence is a fresh stat of the backing file on every query.  Nothing
// invalidates the cache if another process changes the files underneath.
type DiskStore struct {
	keySet
	root  string
	paths map[mdbapi.ItemKey]string
	specs map[mdbapi.ItemKey]mdbapi.ItemSpec
	cache map[mdbapi.ItemKey]interface{}
}

var _ ItemStore = (*DiskStore)(nil)

// NewDiskStore seeds a disk store from the document's root directory and the
// schema's per-key file configuration.  No files are read yet; loading is
// deferred to the first Get of each key.
//
// Errors:
//
//    - modaldb-error-schema-invalid -- when a disk key lacks a filename or load func
func NewDiskStore(schema mdbapi.Schema, doc mdbapi.Document) (*DiskStore, error) {
	if err := mdbapi.ValidateSchema(schema); err != nil {
		return nil, err
	}
	s := &DiskStore{
		keySet: newKeySet(schema, mdbapi.ModeDisk),
		root:   doc.Root,
		paths:  map[mdbapi.ItemKey]string{},
		specs:  map[mdbapi.ItemKey]mdbapi.ItemSpec{},
		cache:  map[mdbapi.ItemKey]interface{}{},
	}
	for k := range s.keys {
		spec := schema.Items[k]
		s.paths[k] = filepath.Join(doc.Root, spec.Filename)
		s.specs[k] = spec
		s.cache[k] = nil
		s.flags[k] = s.presentNow(k)
	}
	return s, nil
}

// Root returns the directory the store's backing files live under.
func (s *DiskStore) Root() string {
	return s.root
}

// Path returns the backing file path for a key.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
func (s *DiskStore) Path(key mdbapi.ItemKey) (string, error) {
	if err := s.expect(key); err != nil {
		return "", err
	}
	return s.paths[key], nil
}

// Get returns the item's value, loading it from disk on first access.
// If the backing file does not exist and nothing is cached, the nil
// sentinel is returned.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
//    - modaldb-error-io -- when the load func fails
func (s *DiskStore) Get(key mdbapi.ItemKey) (interface{}, error) {
	if err := s.expect(key); err != nil {
		return nil, err
	}
	if s.cache[key] == nil && s.presentNow(key) {
		value, err := s.specs[key].Load(s.paths[key])
		if err != nil {
			return nil, mdbapi.ErrorIo("loading item "+string(key), s.paths[key], err)
		}
		s.cache[key] = value
	}
	return s.cache[key], nil
}

// Set caches the value and immediately persists it with the key's save func.
// On failure the cache stays updated but the on-disk state is unspecified;
// there is no rollback.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
//    - modaldb-error-item-readonly -- when the key's schema declares no save func
//    - modaldb-error-io -- when the save func fails
func (s *DiskStore) Set(key mdbapi.ItemKey, value interface{}) error {
	if err := s.expect(key); err != nil {
		return err
	}
	if s.specs[key].Save == nil {
		return mdbapi.ErrorItemReadOnly(key)
	}
	s.flags[key] = true
	s.cache[key] = value
	if err := s.specs[key].Save(value, s.paths[key]); err != nil {
		return mdbapi.ErrorIo("saving item "+string(key), s.paths[key], err)
	}
	return nil
}

// Delete clears the cache entry and removes the backing file.
// Removing an absent file is an error; callers must not assume idempotence.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
//    - modaldb-error-io -- when removing the backing file fails (including when it does not exist)
func (s *DiskStore) Delete(key mdbapi.ItemKey) error {
	if err := s.expect(key); err != nil {
		return err
	}
	s.flags[key] = false
	s.cache[key] = nil
	if err := os.Remove(s.paths[key]); err != nil {
		return mdbapi.ErrorIo("removing item "+string(key), s.paths[key], err)
	}
	return nil
}

// Present stats the backing file; the result is never cached.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared for this store
//    - modaldb-error-io -- when the stat fails for a reason other than absence
func (s *DiskStore) Present(key mdbapi.ItemKey) (bool, error) {
	if err := s.expect(key); err != nil {
		return false, err
	}
	_, err := os.Stat(s.paths[key])
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mdbapi.ErrorIo("could not stat item "+string(key), s.paths[key], err)
	}
	return true, nil
}

func (s *DiskStore) presentNow(key mdbapi.ItemKey) bool {
	_, err := os.Stat(s.paths[key])
	return err == nil
}

func (s *DiskStore) PresentItems() []mdbapi.ItemKey {
	present, _ := s.partition(s.presentNow)
	return present
}

func (s *DiskStore) AbsentItems() []mdbapi.ItemKey {
	_, absent := s.partition(s.presentNow)
	return absent
}
