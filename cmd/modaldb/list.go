package main

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"
	"github.com/warpfork/go-fsx/osfs"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/docstore"
)

var listCmdDef = cli.Command{
	Name:  "list",
	Usage: "List the documents in a store.",
	Description: heredoc.Doc(`
		Walks the store root and prints the id of every document found,
		one per line, in natural order. Child object documents nested
		under a parent id are included.
	`),
	Action: chainCmdMiddleware(cmdList,
		cmdMiddlewareLogging,
		cmdMiddlewareTracingConfig,
		cmdMiddlewareTracingSpan,
	),
}

// openStore opens the document store named by the global store flag.
func openStore(c *cli.Context) (docstore.Store, error) {
	path, errRaw := filepath.Abs(c.String("store"))
	if errRaw != nil {
		return docstore.Store{}, mdbapi.ErrorIo("could not resolve store path", c.String("store"), errRaw)
	}
	return docstore.Open(osfs.DirFS("/"), path)
}

func cmdList(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	ids, err := store.ListDocuments(c.Context)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintf(c.App.Writer, "%s\n", id)
	}
	return nil
}
