/*
	Package children implements the per-parent child address registry.

	A child has two identifiers: a raw id, which names it in isolation
	(e.g. "1"), and a full id, which qualifies it by its parent
	(e.g. "video_1/1").  The Container keeps one raw-id to full-id table per
	child type the parent's schema declares, and resolves possibly ambiguous
	references into an unambiguous (child type, full id) pair.
*/
package children

import (
	"strings"

	"github.com/facette/natsort"

	"github.com/modaltools/modaldb/mdbapi"
)

// Ref is a caller-supplied reference to a child.
//
// Type may be left empty when the parent declares exactly one child type;
// with several declared types an empty Type is an ambiguity error.
// ID may be given in raw or full form.
type Ref struct {
	Type mdbapi.ChildType
	ID   string
}

// Container is the address registry for the children of one parent instance.
// It is seeded from a backing document snapshot at construction and owns its
// tables exclusively afterwards; persisting table state back into a document
// is the collaborator's job (see Tables).
type Container struct {
	parentID string
	prefix   string
	types    []mdbapi.ChildType
	tables   map[mdbapi.ChildType]map[string]mdbapi.FullID
}

// NewContainer seeds a registry from the document's child tables.
// Every child type the schema declares must have a table in the document,
// even an empty one.
//
// Errors:
//
//    - modaldb-error-document-invalid -- when a declared child type has no table in the document
func NewContainer(parentID string, schema mdbapi.Schema, doc mdbapi.Document) (*Container, error) {
	c := &Container{
		parentID: parentID,
		prefix:   parentID + mdbapi.IDJoiner,
		types:    append([]mdbapi.ChildType{}, schema.Children...),
		tables:   map[mdbapi.ChildType]map[string]mdbapi.FullID{},
	}
	for _, ct := range c.types {
		table, ok := doc.Children.Values[ct]
		if !ok {
			return nil, mdbapi.ErrorDocumentInvalid(doc.Id, "no child table for declared type "+string(ct))
		}
		copied := map[string]mdbapi.FullID{}
		for raw, full := range table.Values {
			copied[raw] = full
		}
		c.tables[ct] = copied
	}
	return c, nil
}

// ParentID returns the id of the parent instance this registry is scoped to.
func (c *Container) ParentID() string {
	return c.parentID
}

// Types returns the declared child types.
func (c *Container) Types() []mdbapi.ChildType {
	return append([]mdbapi.ChildType{}, c.types...)
}

// IsFullID reports whether an id is already qualified by this parent.
func (c *Container) IsFullID(id string) bool {
	return strings.HasPrefix(id, c.prefix)
}

// IsRawID reports whether an id is unqualified.
func (c *Container) IsRawID(id string) bool {
	return !c.IsFullID(id)
}

// ToRawID strips the parent prefix if present.  Idempotent and total.
func (c *Container) ToRawID(id string) string {
	if c.IsFullID(id) {
		return id[len(c.prefix):]
	}
	return id
}

// ToFullID prepends the parent prefix if absent.  Idempotent and total.
func (c *Container) ToFullID(id string) mdbapi.FullID {
	if c.IsRawID(id) {
		return mdbapi.FullID(c.prefix + id)
	}
	return mdbapi.FullID(id)
}

// Resolve turns a reference into an unambiguous (child type, raw id) pair.
//
// Errors:
//
//    - modaldb-error-no-childtypes -- when the parent declares no child types
//    - modaldb-error-reference-invalid -- when the reference has an empty id
//    - modaldb-error-childtype-ambiguous -- when the type is omitted and several types are declared
//    - modaldb-error-childtype-invalid -- when the named type is not declared
func (c *Container) Resolve(ref Ref) (mdbapi.ChildType, string, error) {
	if len(c.types) == 0 {
		return "", "", mdbapi.ErrorNoChildTypes(c.parentID)
	}
	if ref.ID == "" {
		return "", "", mdbapi.ErrorRefInvalid("empty id")
	}
	ct := ref.Type
	if ct == "" {
		if len(c.types) != 1 {
			return "", "", mdbapi.ErrorChildAmbiguous(c.parentID, len(c.types))
		}
		ct = c.types[0]
	} else if _, declared := c.tables[ct]; !declared {
		return "", "", mdbapi.ErrorChildTypeInvalid(ct)
	}
	return ct, c.ToRawID(ref.ID), nil
}

// Get resolves a reference and looks up the child's full id.
//
// Errors:
//
//    - modaldb-error-no-childtypes -- when the parent declares no child types
//    - modaldb-error-reference-invalid -- when the reference has an empty id
//    - modaldb-error-childtype-ambiguous -- when the type is omitted and several types are declared
//    - modaldb-error-childtype-invalid -- when the named type is not declared
//    - modaldb-error-no-such-child -- when the raw id was never added
func (c *Container) Get(ref Ref) (mdbapi.ChildType, mdbapi.FullID, error) {
	ct, rawID, err := c.Resolve(ref)
	if err != nil {
		return "", "", err
	}
	fullID, ok := c.tables[ct][rawID]
	if !ok {
		return "", "", mdbapi.ErrorNoSuchChild(ct, rawID)
	}
	return ct, fullID, nil
}

// Add resolves a reference and inserts (or overwrites) the raw-id to full-id
// entry in that type's table.  Repeating an identical add is a no-op.
//
// Errors:
//
//    - modaldb-error-no-childtypes -- when the parent declares no child types
//    - modaldb-error-reference-invalid -- when the reference has an empty id
//    - modaldb-error-childtype-ambiguous -- when the type is omitted and several types are declared
//    - modaldb-error-childtype-invalid -- when the named type is not declared
func (c *Container) Add(ref Ref) error {
	ct, rawID, err := c.Resolve(ref)
	if err != nil {
		return err
	}
	c.tables[ct][rawID] = c.ToFullID(rawID)
	return nil
}

// List returns the known raw ids of one child type, in natural order
// (so "2" sorts before "10").
//
// Errors:
//
//    - modaldb-error-no-childtypes -- when the parent declares no child types
//    - modaldb-error-childtype-invalid -- when the named type is not declared
func (c *Container) List(ct mdbapi.ChildType) ([]string, error) {
	if len(c.types) == 0 {
		return nil, mdbapi.ErrorNoChildTypes(c.parentID)
	}
	table, declared := c.tables[ct]
	if !declared {
		return nil, mdbapi.ErrorChildTypeInvalid(ct)
	}
	rawIDs := make([]string, 0, len(table))
	for rawID := range table {
		rawIDs = append(rawIDs, rawID)
	}
	natsort.Sort(rawIDs)
	return rawIDs, nil
}

// Tables exports a copy of the registry state in document form,
// for collaborators that flush object state back to a document store.
func (c *Container) Tables() mdbapi.ChildTables {
	out := mdbapi.ChildTables{Values: map[mdbapi.ChildType]mdbapi.ChildTable{}}
	for _, ct := range c.types {
		out.Keys = append(out.Keys, ct)
		rawIDs, _ := c.List(ct)
		table := mdbapi.ChildTable{Values: map[string]mdbapi.FullID{}}
		for _, rawID := range rawIDs {
			table.Keys = append(table.Keys, rawID)
			table.Values[rawID] = c.tables[ct][rawID]
		}
		out.Values[ct] = table
	}
	return out
}
