package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dhamidi/ambig/query"
	"github.com/spf13/cobra"
)

func newExamplesCmd(opts *options) *cobra.Command {
	var grammarName string
	var category string

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Parse the example queries and summarize each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := query.Categories
			if category != "" {
				c, err := query.ParseCategory(category)
				if err != nil {
					return err
				}
				categories = []query.Category{c}
			}

			g, err := loadGrammar(grammarName, "")
			if err != nil {
				return fmt.Errorf("load grammar: %w", err)
			}
			p := query.NewParserFromGrammar(g)

			out := cmd.OutOrStdout()
			s := opts.styler(out)
			for _, c := range categories {
				fmt.Fprintln(out, s.title(fmt.Sprintf("== %s ==", c)))
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "derivations\tdepth\tnodes\tcolumns\ttable\tquery")
				for _, r := range p.ParseMultiple(query.Examples(c)) {
					if r.Err != nil {
						fmt.Fprintf(tw, "%s\t\t\t\t\t%s\n", s.fail("error"), r.Query)
						fmt.Fprintf(tw, "\t\t\t\t\t  %v\n", r.Err)
						continue
					}
					tree, err := r.Forest.Derivation(0)
					if err != nil {
						return err
					}
					count := r.Forest.DerivationCount().String()
					if r.Forest.IsAmbiguous() {
						count = s.warn(count)
					}
					fmt.Fprintf(tw, "%s\t%d\t%d\t%v\t%s\t%s\n",
						count, tree.Depth(), tree.Count(), query.Columns(tree), query.Table(tree), r.Query)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&grammarName, "grammar", "g", defaultGrammar(), "grammar variant or EBNF file")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category (valid, ambiguous, invalid, complex)")

	return cmd
}
