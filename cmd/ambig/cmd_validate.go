package main

import (
	"fmt"

	"github.com/dhamidi/ambig/query"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	var ambiguity bool

	cmd := &cobra.Command{
		Use:   "validate [query...]",
		Short: "Check queries for syntax and semantic errors",
		Long: `Check queries for syntax and semantic errors.

Each argument is one query; without arguments the ';'-separated queries on
stdin are checked. The command fails when any query is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := readQueries(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			v, err := query.NewValidator()
			if err != nil {
				return fmt.Errorf("create validator: %w", err)
			}

			out := cmd.OutOrStdout()
			s := opts.styler(out)
			invalid := 0
			for _, r := range v.ValidateBatch(queries) {
				status := s.ok("valid")
				if !r.Valid {
					status = s.fail("invalid")
					invalid++
				}
				fmt.Fprintf(out, "%s\t%s\n", status, r.Query)
				for _, msg := range r.Messages {
					fmt.Fprintf(out, "\t%s\n", msg)
				}
				if ambiguity && r.Forest != nil {
					ambiguous, count, err := v.CheckAmbiguity(r.Query)
					if err == nil && ambiguous {
						fmt.Fprintf(out, "\t%s without precedence: %s derivations\n", s.warn("ambiguous"), count)
					}
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d queries invalid", invalid, len(queries))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ambiguity, "ambiguity", true, "report queries that are ambiguous without operator precedence")

	return cmd
}
