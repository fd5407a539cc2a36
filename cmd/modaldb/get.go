package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
	"github.com/urfave/cli/v2"

	"github.com/modaltools/modaldb/mdbapi"
)

var getCmdDef = cli.Command{
	Name:      "get",
	Usage:     "Print a document from the store.",
	ArgsUsage: "[document id]",
	Description: heredoc.Doc(`
		Loads the backing document for the given id and prints it as json.
		Documents are self-describing, so no item schema is needed.
	`),
	Action: chainCmdMiddleware(cmdGet,
		cmdMiddlewareLogging,
		cmdMiddlewareTracingConfig,
		cmdMiddlewareTracingSpan,
	),
}

func cmdGet(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("invalid number of arguments")
	}
	store, err := openStore(c)
	if err != nil {
		return err
	}
	doc, err := store.GetDocument(c.Context, c.Args().First())
	if err != nil {
		return err
	}

	n := bindnode.Wrap(&doc, mdbapi.TypeSystem.TypeByName("Document"))
	c.App.Metadata["result"] = n.(schema.TypedNode).Representation()
	return nil
}
