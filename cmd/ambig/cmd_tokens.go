package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/dhamidi/ambig/format"
	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	var grammarName string

	cmd := &cobra.Command{
		Use:   "tokens [query]",
		Short: "Print the tokens of a query, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			g, err := loadGrammar(grammarName, "")
			if err != nil {
				return fmt.Errorf("load grammar: %w", err)
			}

			tokens, err := lex.Tokenize(g, text)
			if encErr := format.NewLineEncoder(cmd.OutOrStdout()).Encode(tokens); encErr != nil {
				return fmt.Errorf("encode tokens: %w", encErr)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&grammarName, "grammar", "g", defaultGrammar(), "grammar variant or EBNF file")

	return cmd
}
