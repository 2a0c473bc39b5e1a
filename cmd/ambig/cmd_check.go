package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	var start string
	var printGrammar bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Compile an EBNF grammar file and report every error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			f, err := os.Open(filename)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			g, err := grammar.Parse(filename, f, start)
			if err != nil {
				printErrors(opts.styler(out), out, err)
				return errors.New("grammar has errors")
			}

			s := opts.styler(out)
			fmt.Fprintf(out, "%s: %s, start %s, %d rules, %d token classes, %d literals\n",
				filename, s.ok("ok"), g.Start(), len(g.Rules()), len(g.Tokens()), len(g.Literals()))
			if printGrammar {
				fmt.Fprint(out, g)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start rule (defaults to the first rule)")
	cmd.Flags().BoolVar(&printGrammar, "print", false, "print the compiled grammar")

	return cmd
}

// printErrors writes each joined error on its own line.
func printErrors(s styler, w io.Writer, err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			printErrors(s, w, e)
		}
		return
	}
	fmt.Fprintf(w, "%s %v\n", s.fail("error:"), err)
}
