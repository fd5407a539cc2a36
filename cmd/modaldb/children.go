package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"

	"github.com/modaltools/modaldb/mdbapi"
	"github.com/modaltools/modaldb/pkg/children"
)

var childrenCmdDef = cli.Command{
	Name:      "children",
	Usage:     "List the children of a document.",
	ArgsUsage: "[document id] [child type]",
	Description: heredoc.Doc(`
		Prints the child ids registered in a document, grouped by child
		type. A raw id and its fully qualified form are printed side by
		side. If a child type is given, only that type is listed.
	`),
	Action: chainCmdMiddleware(cmdChildren,
		cmdMiddlewareLogging,
		cmdMiddlewareTracingConfig,
		cmdMiddlewareTracingSpan,
	),
}

func cmdChildren(c *cli.Context) error {
	if c.Args().Len() < 1 || c.Args().Len() > 2 {
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

	// the document's own tables declare the child types here
	con, err := children.NewContainer(doc.Id, mdbapi.Schema{Children: doc.Children.Keys}, doc)
	if err != nil {
		return err
	}

	types := con.Types()
	if c.Args().Len() == 2 {
		types = []mdbapi.ChildType{mdbapi.ChildType(c.Args().Get(1))}
	}

	for _, ct := range types {
		rawIDs, err := con.List(ct)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s:\n", ct)
		for _, rawID := range rawIDs {
			// report the table's own entry, which may predate the
			// canonical parent-prefixed form
			_, fullID, err := con.Get(children.Ref{Type: ct, ID: rawID})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "\t%s\t%s\n", rawID, fullID)
		}
	}
	return nil
}
