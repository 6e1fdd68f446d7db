package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tafsirgest/internal/bibliography"
)

func booksCmd() *cobra.Command {
	var withSkipped bool

	cmd := &cobra.Command{
		Use:   "books <file>",
		Short: "List the books cited in a document's bibliography table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := readBlocks(args[0])
			if err != nil {
				return err
			}
			catalog, err := bibliography.ReadCatalog(blocks)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if withSkipped {
				return enc.Encode(catalog)
			}
			return enc.Encode(catalog.Books)
		},
	}
	cmd.Flags().BoolVar(&withSkipped, "skipped", false, "include the table position and skipped rows")
	return cmd
}
