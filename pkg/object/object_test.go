package object_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/children"
	"github.com/modaltools/modaldb/pkg/object"
)

func loadText(path string) (interface{}, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func saveText(value interface{}, path string) error {
	return os.WriteFile(path, []byte(value.(string)), 0644)
}

func videoSchema() mdbapi.Schema {
	return mdbapi.Schema{
		Items: map[mdbapi.ItemKey]mdbapi.ItemSpec{
			"name":      {Mode: mdbapi.ModeMemory},
			"thumbnail": {Mode: mdbapi.ModeDisk, Filename: "thumbnail.png", Load: loadText, Save: saveText},
		},
		Children: []mdbapi.ChildType{"frames"},
	}
}

func videoDoc(t *testing.T) mdbapi.Document {
	return mdbapi.Document{
		Id:   "video_1",
		Root: t.TempDir(),
		Children: mdbapi.ChildTables{
			Keys:   []mdbapi.ChildType{"frames"},
			Values: map[mdbapi.ChildType]mdbapi.ChildTable{"frames": {}},
		},
	}
}

func TestObjectRoutesByMode(t *testing.T) {
	doc := videoDoc(t)
	obj, err := object.New(videoSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, obj.ID(), qt.Equals, "video_1")
	qt.Assert(t, obj.Contains("name"), qt.IsTrue)
	qt.Assert(t, obj.Contains("bogus"), qt.IsFalse)

	// the memory item leaves no file behind
	qt.Assert(t, obj.Set("name", "sample video"), qt.IsNil)
	entries, errRaw := os.ReadDir(doc.Root)
	qt.Assert(t, errRaw, qt.IsNil)
	qt.Assert(t, entries, qt.HasLen, 0)

	// the disk item writes through eagerly
	qt.Assert(t, obj.Set("thumbnail", "pixels"), qt.IsNil)
	b, errRaw := os.ReadFile(filepath.Join(doc.Root, "thumbnail.png"))
	qt.Assert(t, errRaw, qt.IsNil)
	qt.Assert(t, string(b), qt.Equals, "pixels")

	v, err := obj.Get("name")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, "sample video")
	v, err = obj.Get("thumbnail")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, "pixels")

	_, err = obj.Get("bogus")
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeNoSuchItem)
}

func TestObjectPresenceAcrossModes(t *testing.T) {
	obj, err := object.New(videoSchema(), videoDoc(t))
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, obj.PresentItems(), qt.HasLen, 0)
	qt.Assert(t, obj.AbsentItems(), qt.DeepEquals,
		[]mdbapi.ItemKey{"name", "thumbnail"})

	qt.Assert(t, obj.Set("thumbnail", "pixels"), qt.IsNil)
	qt.Assert(t, obj.Set("name", "sample video"), qt.IsNil)

	qt.Assert(t, obj.PresentItems(), qt.DeepEquals,
		[]mdbapi.ItemKey{"name", "thumbnail"})
	qt.Assert(t, obj.AbsentItems(), qt.HasLen, 0)

	qt.Assert(t, obj.Delete("thumbnail"), qt.IsNil)
	qt.Assert(t, obj.PresentItems(), qt.DeepEquals,
		[]mdbapi.ItemKey{"name"})
}

func TestObjectChildren(t *testing.T) {
	obj, err := object.New(videoSchema(), videoDoc(t))
	qt.Assert(t, err, qt.IsNil)

	kids := obj.Children()
	qt.Assert(t, kids.Add(children.Ref{ID: "1"}), qt.IsNil)
	_, fullID, err := kids.Get(children.Ref{ID: "1"})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, fullID, qt.Equals, mdbapi.FullID("video_1/1"))
}

func TestObjectSnapshotRoundTrip(t *testing.T) {
	doc := videoDoc(t)
	obj, err := object.New(videoSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, obj.Set("name", "sample video"), qt.IsNil)
	qt.Assert(t, obj.Set("thumbnail", "pixels"), qt.IsNil)
	qt.Assert(t, obj.Children().Add(children.Ref{ID: "1"}), qt.IsNil)

	snap, err := obj.Snapshot()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, snap.Id, qt.Equals, "video_1")
	qt.Assert(t, snap.Root, qt.Equals, doc.Root)

	nameMeta := snap.ItemMetaFor("name")
	qt.Assert(t, nameMeta.Mode, qt.Equals, "memory")
	qt.Assert(t, nameMeta.Data, qt.IsNotNil)
	qt.Assert(t, *nameMeta.Data, qt.Equals, "sample video")
	qt.Assert(t, *nameMeta.Present, qt.IsTrue)

	thumbMeta := snap.ItemMetaFor("thumbnail")
	qt.Assert(t, thumbMeta.Mode, qt.Equals, "disk")
	qt.Assert(t, thumbMeta.Filename, qt.IsNotNil)
	qt.Assert(t, *thumbMeta.Filename, qt.Equals, "thumbnail.png")
	qt.Assert(t, *thumbMeta.Present, qt.IsTrue)
	qt.Assert(t, thumbMeta.Data, qt.IsNil)

	// a fresh object built over the snapshot sees the same state
	obj2, err := object.New(videoSchema(), snap)
	qt.Assert(t, err, qt.IsNil)
	v, err := obj2.Get("name")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, "sample video")
	v, err = obj2.Get("thumbnail")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, "pixels")
	_, fullID, err := obj2.Children().Get(children.Ref{ID: "1"})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, fullID, qt.Equals, mdbapi.FullID("video_1/1"))
}

func TestObjectSnapshotPresenceIsRecomputed(t *testing.T) {
	doc := videoDoc(t)
	obj, err := object.New(videoSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, obj.Set("thumbnail", "pixels"), qt.IsNil)

	// remove the backing file behind the object's back
	qt.Assert(t, os.Remove(filepath.Join(doc.Root, "thumbnail.png")), qt.IsNil)

	snap, err := obj.Snapshot()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, *snap.ItemMetaFor("thumbnail").Present, qt.IsFalse)
}

func TestObjectSnapshotPropagatesStatErrors(t *testing.T) {
	// a regular file where the root directory should be makes every stat
	// under it fail with ENOTDIR, which is not an absence
	root := filepath.Join(t.TempDir(), "notadir")
	qt.Assert(t, os.WriteFile(root, []byte("x"), 0644), qt.IsNil)
	doc := mdbapi.Document{
		Id:   "video_1",
		Root: root,
		Children: mdbapi.ChildTables{
			Keys:   []mdbapi.ChildType{"frames"},
			Values: map[mdbapi.ChildType]mdbapi.ChildTable{"frames": {}},
		},
	}
	obj, err := object.New(videoSchema(), doc)
	qt.Assert(t, err, qt.IsNil)

	_, err = obj.Snapshot()
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeIo)
}
