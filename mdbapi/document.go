package mdbapi

import (
	"fmt"

	"github.com/ipfs/go-cid"
	_ "github.com/ipld/go-ipld-prime/codec/dagcbor" // side-effecting import; registers a codec.
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
)

// ChildType names a declared category of child object a parent may contain.
type ChildType string

// FullID is a child's identifier qualified by its parent,
// e.g. "video_1/1" for raw id "1" under parent "video_1".
type FullID string

// IDJoiner separates a parent id from a raw child id in a FullID.
const IDJoiner = "/"

// ItemMeta is the serial metadata for one item key in a backing document.
//
// Present is a write-time flag only: stores maintain it on Set and Delete and
// Object.Snapshot exports a recomputed value, but presence queries never read
// it back -- they always re-derive presence from ground truth.
type ItemMeta struct {
	Mode     string
	Filename *string
	Present  *bool
	Data     *string
}

// ChildTable maps raw child ids to full ids for one child type.
type ChildTable struct {
	Keys   []string
	Values map[string]FullID
}

// Document is the backing snapshot for one data object.
// Stores and child containers are seeded from it at construction;
// they keep no live reference to it afterwards.
type Document struct {
	Id       string
	Root     string
	Items    ItemMetas
	Children ChildTables
}

type ItemMetas struct {
	Keys   []ItemKey
	Values map[ItemKey]ItemMeta
}

type ChildTables struct {
	Keys   []ChildType
	Values map[ChildType]ChildTable
}

// DocumentCapsule is the versioning envelope a document is stored in.
type DocumentCapsule struct {
	Document *Document
}

type DocumentCID string

func (doc *Document) Cid() DocumentCID {
	// convert the document to a typed node
	nDoc := bindnode.Wrap(doc, TypeSystem.TypeByName("Document"))

	// compute CID of the document content
	lnk, errRaw := LinkSystem.ComputeLink(cidlink.LinkPrototype{Prefix: cid.Prefix{
		Version:  1,    // Usually '1'.
		Codec:    0x71, // 0x71 means "dag-cbor" -- See the multicodecs table: https://github.com/multiformats/multicodec/
		MhType:   0x13, // 0x13 means "sha2-512" -- See the multicodecs table: https://github.com/multiformats/multicodec/
		MhLength: 64,   // sha2-512 hash has a 64-byte sum.
	}}, nDoc.(schema.TypedNode).Representation())
	if errRaw != nil {
		// panic! this should never fail unless IPLD is broken
		panic(fmt.Sprintf("Fatal IPLD Error: lsys.ComputeLink failed for Document: %s", errRaw))
	}
	return DocumentCID(lnk.String())
}

// ItemMetaFor returns the metadata for a key, or a zero ItemMeta when the
// document does not mention it.
func (doc *Document) ItemMetaFor(key ItemKey) ItemMeta {
	if doc.Items.Values == nil {
		return ItemMeta{}
	}
	return doc.Items.Values[key]
}
