package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhamidi/ambig/ebnf/grammar"
	"github.com/dhamidi/ambig/query"
	"github.com/dhamidi/ambig/query/lsp"
)

const grammarEnv = "AMBIG_GRAMMAR"

// defaultGrammar is the --grammar default: $AMBIG_GRAMMAR, else the
// ambiguous variant.
func defaultGrammar() string {
	if g := os.Getenv(grammarEnv); g != "" {
		return g
	}
	return query.Ambiguous.String()
}

// loadGrammar resolves name to an embedded variant or, failing that, to an
// EBNF file. An empty start keeps the grammar's own start rule.
func loadGrammar(name, start string) (*grammar.Grammar, error) {
	if v, err := query.ParseVariant(name); err == nil {
		if start == "" {
			return query.Grammar(v)
		}
		src, err := query.Source(v)
		if err != nil {
			return nil, err
		}
		return query.LoadGrammar(src, start)
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("grammar %q is neither a variant (%s) nor a readable file: %w", name, variantNames(), err)
	}
	return grammar.LoadGrammar(name, start)
}

func variantNames() string {
	names := make([]string, len(query.Variants))
	for i, v := range query.Variants {
		names[i] = v.String()
	}
	return strings.Join(names, ", ")
}

// readQueries returns args, or the ';'-separated statements of stdin when
// there are no args.
func readQueries(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	var queries []string
	for _, stmt := range lsp.Statements(string(data)) {
		queries = append(queries, stmt.Text)
	}
	return queries, nil
}
