package main

import (
	"fmt"

	"github.com/dhamidi/ambig/query"
	"github.com/dhamidi/ambig/query/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := query.ParseVariant(variant)
			if err != nil {
				return err
			}
			server, err := lsp.NewServer(version, v)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			return server.RunStdio()
		},
	}

	cmd.Flags().StringVarP(&variant, "grammar", "g", query.Ambiguous.String(), "grammar variant (ambiguous, precedence)")

	return cmd
}
