/*
	Package docstore is the document-store collaborator the core subsystems
	are seeded from.

	Each data object has one backing document, stored as a json file named by
	the object id under the store root (full ids such as "video_1/1" nest
	naturally as subdirectories).  The store hands out Document snapshots at
	object construction and accepts flushed snapshots back; it does no
	coordination between writers, so concurrent stores over the same root can
	lose updates.

	Reads go through an fs handle so tests can substitute an fstest.MapFS;
	writes use the os package, which assumes the handle is rooted at "/" when
	the store is used live.
*/
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/facette/natsort"
	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/codec/json"
	"github.com/warpfork/go-fsx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/object"
	"github.com/modaltools/modaldb/pkg/tracing"
)

// DocumentSuffix is the filename suffix of every document file in a store.
const DocumentSuffix = ".json"

// Store reads and writes backing documents under one root directory.
type Store struct {
	fsys fsx.FS // Usually `osfs.DirFS("/")` when live, but may vary for tests.
	path string // Store root.  Always concatenated to the front of anything else we do.
}

// Open creates a handle for document data under the given root.
// A root that does not exist yet is not an error; it is created on the
// first write.
//
// Errors:
//
//    - modaldb-error-io -- when the store root cannot be statted
func Open(fsys fsx.FS, path string) (Store, error) {
	if filepath.IsAbs(path) {
		path = path[1:]
	}
	path = filepath.Clean(path)
	if _, err := fs.Stat(fsys, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Store{}, mdbapi.ErrorIo("could not stat document store root", path, err)
	}
	return Store{fsys: fsys, path: path}, nil
}

// Path returns the store root.
func (s Store) Path() string {
	return s.path
}

// documentPath returns the file path for a document id.
// This will be [store root]/[id].json
func (s Store) documentPath(id string) string {
	return filepath.Join(s.path, id+DocumentSuffix)
}

// ListDocuments walks the store root and returns every document id found,
// in natural order.
//
// Errors:
//
//    - modaldb-error-io -- when walking the store root fails
func (s Store) ListDocuments(ctx context.Context) ([]string, error) {
	ctx, span := tracing.Start(ctx, "docstore.ListDocuments",
		trace.WithAttributes(attribute.String(tracing.AttrKeyStorePath, s.path)))
	defer span.End()

	if _, err := fs.Stat(s.fsys, s.path); errors.Is(err, fs.ErrNotExist) {
		// no store directory yet; nothing stored
		return []string{}, nil
	}

	var ids []string
	err := fsx.WalkDir(s.fsys, s.path,
		func(path string, d fsx.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), DocumentSuffix) {
				return nil
			}
			rel, err := filepath.Rel(s.path, path)
			if err != nil {
				return err
			}
			ids = append(ids, strings.TrimSuffix(rel, DocumentSuffix))
			return nil
		})
	if err != nil {
		err = mdbapi.ErrorIo("failed to walk document store root", s.path, err)
		tracing.SetSpanError(ctx, err)
		return nil, err
	}

	natsort.Sort(ids)
	return ids, nil
}

// HasDocument reports whether a document exists for the given id.
//
// Errors:
//
//    - modaldb-error-io -- when the document file cannot be statted
func (s Store) HasDocument(id string) (bool, error) {
	path := s.documentPath(id)
	_, err := fs.Stat(s.fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mdbapi.ErrorIo("could not stat document file", path, err)
	}
	return true, nil
}

// GetDocument loads and parses the backing document for the given id.
//
// Errors:
//
//    - modaldb-error-missing -- when no document exists for the id
//    - modaldb-error-io -- when reading the document file fails
//    - modaldb-error-document-parse -- when the file does not parse as a DocumentCapsule
func (s Store) GetDocument(ctx context.Context, id string) (mdbapi.Document, error) {
	ctx, span := tracing.Start(ctx, "docstore.GetDocument",
		trace.WithAttributes(attribute.String(tracing.AttrKeyDocumentId, id)))
	defer span.End()

	path := s.documentPath(id)
	serial, err := fs.ReadFile(s.fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		err = mdbapi.ErrorFileMissing(path)
		tracing.SetSpanError(ctx, err)
		return mdbapi.Document{}, err
	}
	if err != nil {
		err = mdbapi.ErrorIo("failed to read document file", path, err)
		tracing.SetSpanError(ctx, err)
		return mdbapi.Document{}, err
	}

	capsule := mdbapi.DocumentCapsule{}
	_, err = ipld.Unmarshal(serial, json.Decode, &capsule, mdbapi.TypeSystem.TypeByName("DocumentCapsule"))
	if err != nil {
		err = mdbapi.ErrorDocumentParse(path, err)
		tracing.SetSpanError(ctx, err)
		return mdbapi.Document{}, err
	}
	if capsule.Document == nil {
		// ... this isn't really reachable.
		err = mdbapi.ErrorDocumentParse(path, fmt.Errorf("no v1 Document in DocumentCapsule"))
		tracing.SetSpanError(ctx, err)
		return mdbapi.Document{}, err
	}

	return *capsule.Document, nil
}

// PutDocument writes a backing document, creating directories as needed.
// The write is skipped when the stored document already has the same
// content id.
//
// Errors:
//
//    - modaldb-error-serialization -- when serializing the document fails
//    - modaldb-error-io -- when writing the document file fails
func (s Store) PutDocument(ctx context.Context, doc mdbapi.Document) error {
	ctx, span := tracing.Start(ctx, "docstore.PutDocument",
		trace.WithAttributes(
			attribute.String(tracing.AttrKeyDocumentId, doc.Id),
			attribute.String(tracing.AttrKeyDocumentCid, string(doc.Cid())),
		))
	defer span.End()

	if existing, err := s.GetDocument(ctx, doc.Id); err == nil && existing.Cid() == doc.Cid() {
		// content unchanged; skip the write
		return nil
	}

	capsule := mdbapi.DocumentCapsule{Document: &doc}
	serial, err := ipld.Marshal(json.Encode, &capsule, mdbapi.TypeSystem.TypeByName("DocumentCapsule"))
	if err != nil {
		err = mdbapi.ErrorSerialization("failed to serialize document", err)
		tracing.SetSpanError(ctx, err)
		return err
	}

	path := filepath.Join("/", s.documentPath(doc.Id))
	dir := filepath.Dir(path)
	if errRaw := os.MkdirAll(dir, 0755); errRaw != nil {
		err = mdbapi.ErrorIo("failed to create document directory", dir, errRaw)
		tracing.SetSpanError(ctx, err)
		return err
	}
	if errRaw := os.WriteFile(path, serial, 0644); errRaw != nil {
		err = mdbapi.ErrorIo("failed to write document file", path, errRaw)
		tracing.SetSpanError(ctx, err)
		return err
	}

	return nil
}

// OpenObject loads the backing document for an id and constructs the object
// over it.
//
// Errors:
//
//    - modaldb-error-missing -- when no document exists for the id
//    - modaldb-error-io -- when reading the document file fails
//    - modaldb-error-document-parse -- when the file does not parse as a DocumentCapsule
//    - modaldb-error-document-invalid -- when a declared child type has no table in the document
//    - modaldb-error-schema-invalid -- when the schema's item specs are incoherent
func (s Store) OpenObject(ctx context.Context, schema mdbapi.Schema, id string) (*object.Object, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return object.New(schema, doc)
}

// SaveObject flushes an object's current state back into the store.
//
// Errors:
//
//    - modaldb-error-io -- when exporting the snapshot or writing the document file fails
//    - modaldb-error-serialization -- when serializing the snapshot fails
func (s Store) SaveObject(ctx context.Context, obj *object.Object) error {
	doc, err := obj.Snapshot()
	if err != nil {
		return err
	}
	return s.PutDocument(ctx, doc)
}
