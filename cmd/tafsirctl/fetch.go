package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tafsirgest/internal/gdocs"
)

func fetchCmd() *cobra.Command {
	var credentials string

	cmd := &cobra.Command{
		Use:   "fetch <documentID>...",
		Short: "Fetch Google Docs documents and parse them",
		Long: "Fetch reads documents through the Docs API. Credentials come from --credentials,\n" +
			"GOOGLE_APPLICATION_CREDENTIALS_JSON, GOOGLE_APPLICATION_CREDENTIALS or application defaults.",
		Args: cobra.MinimumNArgs(1),
	}
	opts := &parseOptions{}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&credentials, "credentials", "", "service account JSON or path to it")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := gdocs.NewClient(cmd.Context(), gdocs.CredentialOptions(credentials)...)
		if err != nil {
			return err
		}
		p := opts.parser()
		results := runAll(cmd.Context(), args, opts.concurrency, func(ctx context.Context, id string) result {
			blocks, title, err := client.Fetch(ctx, id)
			if err != nil {
				return result{Source: id, Error: err.Error()}
			}
			doc, err := p.Parse(blocks)
			if err != nil {
				return result{Source: id, Title: title, Error: err.Error()}
			}
			return result{Source: id, Title: title, Document: doc}
		})
		return emit(cmd.OutOrStdout(), results)
	}
	return cmd
}
