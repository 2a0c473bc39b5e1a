package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ambig/ebnf/parse"
	"github.com/dhamidi/ambig/format"
	"github.com/dhamidi/ambig/query"
	"github.com/spf13/cobra"
)

func newParseCmd(opts *options) *cobra.Command {
	var grammarName string
	var start string
	var index int
	var all bool
	var limit int
	var outputFormat string
	var positions bool

	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse a query and print its derivations",
		Long: `Parse a query and print one or more of its derivations.

The query is taken from the arguments, or from stdin when there are none.
--grammar names an embedded variant (ambiguous, precedence) or an EBNF file;
it defaults to $AMBIG_GRAMMAR, then to the ambiguous variant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			g, err := loadGrammar(grammarName, start)
			if err != nil {
				return fmt.Errorf("load grammar: %w", err)
			}

			f, err := query.NewParserFromGrammar(g).Parse(text)
			if err != nil {
				return fmt.Errorf("parse: %w", err)
			}

			var trees []*parse.Node
			var first int
			if all {
				trees = f.Derivations(limit)
			} else {
				tree, err := f.Derivation(index)
				if err != nil {
					return err
				}
				trees = []*parse.Node{tree}
				first = index
			}

			out := cmd.OutOrStdout()
			switch outputFormat {
			case "json":
				reports := make([]format.Report, len(trees))
				for i, tree := range trees {
					reports[i] = format.Report{Query: text, Forest: f, Index: first + i, Tree: tree}
				}
				if err := format.NewReportJSONEncoder(out).Encode(reports...); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			case "tree":
				s := opts.styler(out)
				status := s.ok("unambiguous")
				if f.IsAmbiguous() {
					status = s.warn("ambiguous")
				}
				fmt.Fprintf(out, "derivations: %s (%s)\n", f.DerivationCount(), status)
				for i, tree := range trees {
					fmt.Fprintln(out, s.title(fmt.Sprintf("# derivation %d", first+i)))
					enc := format.NewTreeTextEncoder(out, opts.profile).WithPositions(positions)
					if err := enc.Encode(tree); err != nil {
						return fmt.Errorf("encode tree: %w", err)
					}
				}
			default:
				return fmt.Errorf("%w: %s (expected %s)", format.ErrUnknownFormat, outputFormat, strings.Join(format.Formats, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&grammarName, "grammar", "g", defaultGrammar(), "grammar variant or EBNF file")
	cmd.Flags().StringVar(&start, "start", "", "start rule (defaults to the grammar's first rule)")
	cmd.Flags().IntVarP(&index, "index", "i", 0, "derivation to print")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every derivation, up to --limit")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of derivations printed by --all")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (tree, json)")
	cmd.Flags().BoolVar(&positions, "positions", false, "include node positions in tree output")

	return cmd
}
