package main

import (
	"context"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/warpfork/go-fsx/osfs"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/docstore"
)

func seedStore(t *testing.T) string {
	dir := t.TempDir()
	store, err := docstore.Open(osfs.DirFS("/"), dir)
	qt.Assert(t, err, qt.IsNil)
	name := "sample video"
	for _, id := range []string{"video_1", "video_2"} {
		doc := mdbapi.Document{
			Id:   id,
			Root: "/data/" + id,
			Items: mdbapi.ItemMetas{
				Keys: []mdbapi.ItemKey{"name"},
				Values: map[mdbapi.ItemKey]mdbapi.ItemMeta{
					"name": {Mode: "memory", Data: &name},
				},
			},
			Children: mdbapi.ChildTables{
				Keys: []mdbapi.ChildType{"frames"},
				Values: map[mdbapi.ChildType]mdbapi.ChildTable{
					"frames": {
						Keys:   []string{"1", "2"},
						Values: map[string]mdbapi.FullID{"1": mdbapi.FullID(id + "/1"), "2": mdbapi.FullID(id + "/2")},
					},
				},
			},
		}
		qt.Assert(t, store.PutDocument(context.Background(), doc), qt.IsNil)
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf strings.Builder
	app := makeApp(strings.NewReader(""), &outBuf, &errBuf)
	err = app.Run(append([]string{"modaldb"}, args...))
	return outBuf.String(), errBuf.String(), err
}

func TestNewResource(t *testing.T) {
	// the merged resource must share a schema url with the sdk default,
	// or every traced command dies during provider setup
	res, err := newResource()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, res, qt.IsNotNil)
}

func TestCmdList(t *testing.T) {
	dir := seedStore(t)
	stdout, _, err := runCLI(t, "--store", dir, "list")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, stdout, qt.Equals, "video_1\nvideo_2\n")
}

func TestCmdGet(t *testing.T) {
	dir := seedStore(t)
	stdout, _, err := runCLI(t, "--store", dir, "get", "video_1")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, strings.Contains(stdout, `"video_1"`), qt.IsTrue)
	qt.Assert(t, strings.Contains(stdout, `"sample video"`), qt.IsTrue)
}

func TestCmdGetMissing(t *testing.T) {
	dir := seedStore(t)
	_, stderr, err := runCLI(t, "--store", dir, "get", "video_99")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Assert(t, strings.Contains(stderr, "error:"), qt.IsTrue)
}

func TestCmdErrorJsonOutput(t *testing.T) {
	dir := seedStore(t)
	// a bare argument-count error is not a coded error; the json API
	// wraps it so output always carries a code
	_, stderr, err := runCLI(t, "--json", "--store", dir, "get")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Assert(t, strings.Contains(stderr, "modaldb-error-unknown"), qt.IsTrue)
}

func TestCmdChildren(t *testing.T) {
	dir := seedStore(t)
	stdout, _, err := runCLI(t, "--store", dir, "children", "video_1")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, stdout, qt.Equals, "frames:\n\t1\tvideo_1/1\n\t2\tvideo_1/2\n")
}

func TestCmdChildrenReportsStoredFullIds(t *testing.T) {
	dir := t.TempDir()
	store, err := docstore.Open(osfs.DirFS("/"), dir)
	qt.Assert(t, err, qt.IsNil)
	// a hand-authored table may map a raw id to a full id that does not
	// follow the parent-prefix convention; report what is stored
	doc := mdbapi.Document{
		Id:    "video_1",
		Root:  "/data/video_1",
		Items: mdbapi.ItemMetas{Values: map[mdbapi.ItemKey]mdbapi.ItemMeta{}},
		Children: mdbapi.ChildTables{
			Keys: []mdbapi.ChildType{"frames"},
			Values: map[mdbapi.ChildType]mdbapi.ChildTable{
				"frames": {
					Keys:   []string{"1"},
					Values: map[string]mdbapi.FullID{"1": "legacy/1"},
				},
			},
		},
	}
	qt.Assert(t, store.PutDocument(context.Background(), doc), qt.IsNil)

	stdout, _, err := runCLI(t, "--store", dir, "children", "video_1")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, stdout, qt.Equals, "frames:\n\t1\tlegacy/1\n")
}
