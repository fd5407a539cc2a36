package modal_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/modal"
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

func diskSchema() mdbapi.Schema {
	return mdbapi.Schema{Items: map[mdbapi.ItemKey]mdbapi.ItemSpec{
		"subtitles": {Mode: mdbapi.ModeDisk, Filename: "subtitles.txt", Load: loadText, Save: saveText},
		"thumbnail": {Mode: mdbapi.ModeDisk, Filename: "thumbnail.png", Load: loadText, Save: saveText},
		"metadata":  {Mode: mdbapi.ModeDisk, Filename: "metadata.json", Load: loadText},
	}}
}

func diskDoc(t *testing.T) mdbapi.Document {
	return mdbapi.Document{Id: "video_1", Root: t.TempDir()}
}

func TestDiskStoreSetCreatesFile(t *testing.T) {
	doc := diskDoc(t)
	s, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, s.Set("subtitles", "hello"), qt.IsNil)

	// the write-through is eager; the file exists before any flush
	b, errRaw := os.ReadFile(filepath.Join(doc.Root, "subtitles.txt"))
	qt.Assert(t, errRaw, qt.IsNil)
	qt.Assert(t, string(b), qt.Equals, "hello")

	present, err := s.Present("subtitles")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, present, qt.IsTrue)
}

func TestDiskStoreLazyLoad(t *testing.T) {
	doc := diskDoc(t)
	errRaw := os.WriteFile(filepath.Join(doc.Root, "subtitles.txt"), []byte("preexisting"), 0644)
	qt.Assert(t, errRaw, qt.IsNil)

	s, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	v, err := s.Get("subtitles")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, "preexisting")
}

func TestDiskStoreSurvivesReconstruction(t *testing.T) {
	doc := diskDoc(t)
	s, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, s.Set("thumbnail", "pixels"), qt.IsNil)

	s2, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	v, err := s2.Get("thumbnail")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, "pixels")
}

func TestDiskStoreGetAbsentReturnsSentinel(t *testing.T) {
	s, err := modal.NewDiskStore(diskSchema(), diskDoc(t))
	qt.Assert(t, err, qt.IsNil)
	v, err := s.Get("subtitles")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.IsNil)
}

func TestDiskStoreDeleteNotIdempotent(t *testing.T) {
	doc := diskDoc(t)
	s, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, s.Set("subtitles", "hello"), qt.IsNil)

	qt.Assert(t, s.Delete("subtitles"), qt.IsNil)
	_, errRaw := os.Stat(filepath.Join(doc.Root, "subtitles.txt"))
	qt.Assert(t, os.IsNotExist(errRaw), qt.IsTrue)

	err = s.Delete("subtitles")
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeIo)
}

func TestDiskStoreReadOnlyItem(t *testing.T) {
	s, err := modal.NewDiskStore(diskSchema(), diskDoc(t))
	qt.Assert(t, err, qt.IsNil)
	err = s.Set("metadata", "{}")
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeItemReadOnly)
}

func TestDiskStorePresenceIsRecomputed(t *testing.T) {
	doc := diskDoc(t)
	s, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)

	present, err := s.Present("subtitles")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, present, qt.IsFalse)

	// a file appearing behind the store's back is observed on the next query
	errRaw := os.WriteFile(filepath.Join(doc.Root, "subtitles.txt"), []byte("external"), 0644)
	qt.Assert(t, errRaw, qt.IsNil)
	present, err = s.Present("subtitles")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, present, qt.IsTrue)

	// and a file vanishing is observed too, even with a value cached
	qt.Assert(t, os.Remove(filepath.Join(doc.Root, "subtitles.txt")), qt.IsNil)
	present, err = s.Present("subtitles")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, present, qt.IsFalse)
}

func TestDiskStorePartitionNaturalOrder(t *testing.T) {
	doc := diskDoc(t)
	s, err := modal.NewDiskStore(diskSchema(), doc)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, s.Set("thumbnail", "pixels"), qt.IsNil)

	qt.Assert(t, s.PresentItems(), qt.DeepEquals,
		[]mdbapi.ItemKey{"thumbnail"})
	qt.Assert(t, s.AbsentItems(), qt.DeepEquals,
		[]mdbapi.ItemKey{"metadata", "subtitles"})
}

func TestDiskStoreUnknownKey(t *testing.T) {
	s, err := modal.NewDiskStore(diskSchema(), diskDoc(t))
	qt.Assert(t, err, qt.IsNil)
	_, err = s.Get("bogus")
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeNoSuchItem)
	_, err = s.Path("bogus")
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeNoSuchItem)
}

func TestDiskStoreSchemaValidation(t *testing.T) {
	for _, tt := range []struct {
		testCase string
		spec     mdbapi.ItemSpec
	}{
		{
			testCase: "missing filename",
			spec:     mdbapi.ItemSpec{Mode: mdbapi.ModeDisk, Load: loadText},
		},
		{
			testCase: "missing load func",
			spec:     mdbapi.ItemSpec{Mode: mdbapi.ModeDisk, Filename: "x.txt"},
		},
		{
			testCase: "unknown mode",
			spec:     mdbapi.ItemSpec{Mode: "cloud"},
		},
	} {
		schema := mdbapi.Schema{Items: map[mdbapi.ItemKey]mdbapi.ItemSpec{"x": tt.spec}}
		_, err := modal.NewDiskStore(schema, mdbapi.Document{Id: "video_1", Root: t.TempDir()})
		qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeSchemaInvalid,
			qt.Commentf("case %q", tt.testCase))
	}
}

func TestNewStoreUnknownMode(t *testing.T) {
	_, err := modal.NewStore("cloud", memorySchema(), mdbapi.Document{Id: "video_1"})
	qt.Assert(t, serum.Code(err), qt.Equals, mdbapi.ECodeSchemaInvalid)
}
