package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tafsirctl",
		Short:         "Parse tafsir notes into structured verse commentary",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(parseCmd())
	root.AddCommand(fetchCmd())
	root.AddCommand(booksCmd())
	return root
}
