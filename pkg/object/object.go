/*
	Package object ties one data object's item stores and child registry
	together behind a single handle.

	An Object is constructed from a Schema (code-level configuration) and a
	Document (the backing snapshot).  It builds one item store per storage
	mode and one child container, then routes every item operation to the
	store that owns the key's declared mode.  Callers never touch backing
	files or raw identifier strings directly.

	Objects hold no live reference back to a document; Snapshot exports the
	current registry tables and recomputed presence flags into a fresh
	Document for a collaborator (see the docstore package) to persist.
*/
package object

import (
	"github.com/facette/natsort"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/children"
	"github.com/modaltools/modaldb/pkg/modal"
)

type Object struct {
	id       string
	root     string
	schema   mdbapi.Schema
	stores   map[mdbapi.StorageMode]modal.ItemStore
	children *children.Container
}

// New constructs an object from a schema and a backing document snapshot.
//
// Errors:
//
//    - modaldb-error-schema-invalid -- when the schema's item specs are incoherent
//    - modaldb-error-document-invalid -- when a declared child type has no table in the document
func New(schema mdbapi.Schema, doc mdbapi.Document) (*Object, error) {
	if err := mdbapi.ValidateSchema(schema); err != nil {
		return nil, err
	}
	stores := map[mdbapi.StorageMode]modal.ItemStore{}
	for _, mode := range mdbapi.Modes {
		store, err := modal.NewStore(mode, schema, doc)
		if err != nil {
			return nil, err
		}
		stores[mode] = store
	}
	kids, err := children.NewContainer(doc.Id, schema, doc)
	if err != nil {
		return nil, err
	}
	return &Object{
		id:       doc.Id,
		root:     doc.Root,
		schema:   schema,
		stores:   stores,
		children: kids,
	}, nil
}

func (o *Object) ID() string {
	return o.id
}

// Root returns the directory the object's disk items live under.
func (o *Object) Root() string {
	return o.root
}

// Children returns the object's child address registry.
func (o *Object) Children() *children.Container {
	return o.children
}

// Contains reports whether the key is declared in the object's schema.
func (o *Object) Contains(key mdbapi.ItemKey) bool {
	_, ok := o.schema.Items[key]
	return ok
}

// storeFor routes a key to the store owning its declared mode.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared in the schema
func (o *Object) storeFor(key mdbapi.ItemKey) (modal.ItemStore, error) {
	spec, ok := o.schema.Items[key]
	if !ok {
		return nil, mdbapi.ErrorNoSuchItem(key)
	}
	return o.stores[spec.Mode], nil
}

// Get returns an item's value, which may be the nil absence sentinel.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared in the schema
//    - modaldb-error-io -- when loading a disk item fails
func (o *Object) Get(key mdbapi.ItemKey) (interface{}, error) {
	store, err := o.storeFor(key)
	if err != nil {
		return nil, err
	}
	return store.Get(key)
}

// Set stores an item's value through the mode-owning store.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared in the schema
//    - modaldb-error-item-readonly -- when the key's schema declares no save func
//    - modaldb-error-io -- when persisting a disk item fails
func (o *Object) Set(key mdbapi.ItemKey, value interface{}) error {
	store, err := o.storeFor(key)
	if err != nil {
		return err
	}
	return store.Set(key, value)
}

// Delete marks an item absent through the mode-owning store.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared in the schema
//    - modaldb-error-io -- when removing the backing file fails
func (o *Object) Delete(key mdbapi.ItemKey) error {
	store, err := o.storeFor(key)
	if err != nil {
		return err
	}
	return store.Delete(key)
}

// Present recomputes whether an item currently has a materialized value.
//
// Errors:
//
//    - modaldb-error-no-such-item -- when the key is not declared in the schema
//    - modaldb-error-io -- when the backing file cannot be statted
func (o *Object) Present(key mdbapi.ItemKey) (bool, error) {
	store, err := o.storeFor(key)
	if err != nil {
		return false, err
	}
	return store.Present(key)
}

// PresentItems returns the present subset of all declared keys, across both
// storage modes, in natural order.
func (o *Object) PresentItems() []mdbapi.ItemKey {
	var all []string
	for _, store := range o.stores {
		for _, k := range store.PresentItems() {
			all = append(all, string(k))
		}
	}
	natsort.Sort(all)
	keys := make([]mdbapi.ItemKey, 0, len(all))
	for _, s := range all {
		keys = append(keys, mdbapi.ItemKey(s))
	}
	return keys
}

// AbsentItems is the complement of PresentItems within the declared key set.
func (o *Object) AbsentItems() []mdbapi.ItemKey {
	var all []string
	for _, store := range o.stores {
		for _, k := range store.AbsentItems() {
			all = append(all, string(k))
		}
	}
	natsort.Sort(all)
	keys := make([]mdbapi.ItemKey, 0, len(all))
	for _, s := range all {
		keys = append(keys, mdbapi.ItemKey(s))
	}
	return keys
}

// Snapshot exports the object's current state as a fresh backing document:
// recomputed presence flags, memory item data (for string values; other
// runtime values are only persistable via disk mode), and the child tables.
// Presence is taken from ground truth, so a failing stat or load aborts the
// export rather than persisting a wrong flag.
//
// Errors:
//
//    - modaldb-error-io -- when a backing file cannot be statted or loaded
func (o *Object) Snapshot() (mdbapi.Document, error) {
	doc := mdbapi.Document{
		Id:       o.id,
		Root:     o.root,
		Items:    mdbapi.ItemMetas{Values: map[mdbapi.ItemKey]mdbapi.ItemMeta{}},
		Children: o.children.Tables(),
	}
	var keys []string
	for k := range o.schema.Items {
		keys = append(keys, string(k))
	}
	natsort.Sort(keys)
	for _, s := range keys {
		k := mdbapi.ItemKey(s)
		spec := o.schema.Items[k]
		meta := mdbapi.ItemMeta{Mode: string(spec.Mode)}
		if spec.Mode == mdbapi.ModeDisk && spec.Filename != "" {
			filename := spec.Filename
			meta.Filename = &filename
		}
		store := o.stores[spec.Mode]
		present, err := store.Present(k)
		if err != nil {
			return mdbapi.Document{}, err
		}
		meta.Present = &present
		if spec.Mode == mdbapi.ModeMemory {
			value, err := store.Get(k)
			if err != nil {
				return mdbapi.Document{}, err
			}
			if str, ok := value.(string); ok {
				meta.Data = &str
			}
		}
		doc.Items.Keys = append(doc.Items.Keys, k)
		doc.Items.Values[k] = meta
	}
	return doc, nil
}
