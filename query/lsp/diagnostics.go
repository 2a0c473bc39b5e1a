package lsp

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dhamidi/ambig/ebnf/lex"
	"github.com/dhamidi/ambig/ebnf/parse"
	"github.com/dhamidi/ambig/format"
	"github.com/dhamidi/ambig/query"
	"github.com/muesli/termenv"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Analyzer turns query documents into diagnostics.
type Analyzer struct {
	parser    *query.Parser
	validator *query.Validator
}

// NewAnalyzer returns an analyzer parsing statements with the grammar of v.
func NewAnalyzer(v query.Variant) (*Analyzer, error) {
	p, err := query.NewParser(v)
	if err != nil {
		return nil, err
	}
	val, err := query.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Analyzer{parser: p, validator: val}, nil
}

// Diagnostics returns the problems of every statement in text, in document
// order. The result is never nil.
func (a *Analyzer) Diagnostics(text string) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	for _, stmt := range Statements(text) {
		diags = append(diags, a.statementDiagnostics(text, stmt)...)
	}
	return diags
}

func (a *Analyzer) statementDiagnostics(text string, stmt Statement) []protocol.Diagnostic {
	f, err := a.parser.Parse(stmt.Text)
	if err != nil {
		return []protocol.Diagnostic{errorDiagnostic(text, stmt, err)}
	}

	var diags []protocol.Diagnostic
	whole := rangeOf(text, stmt.Offset, stmt.End())
	if f.IsAmbiguous() {
		diags = append(diags, newDiagnostic(whole, protocol.DiagnosticSeverityWarning,
			fmt.Sprintf("ambiguous query: %s derivations", f.DerivationCount())))
	}

	r := a.validator.Validate(stmt.Text)
	if !r.Valid && r.Forest != nil {
		for _, msg := range r.Messages {
			diags = append(diags, newDiagnostic(whole, protocol.DiagnosticSeverityWarning, msg))
		}
	}
	return diags
}

func errorDiagnostic(text string, stmt Statement, err error) protocol.Diagnostic {
	start, end := stmt.Offset, stmt.End()

	var le *lex.Error
	var se *parse.SyntaxError
	switch {
	case errors.As(err, &le):
		start = stmt.Offset + le.Pos.Offset
		end = start + len(string(le.Char))
	case errors.As(err, &se):
		start = stmt.Offset + se.Offset
		end = start
		if se.Found != nil {
			end = start + len(se.Found.Literal)
		}
	}
	return newDiagnostic(rangeOf(text, start, end), protocol.DiagnosticSeverityError, err.Error())
}

func newDiagnostic(r protocol.Range, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	source := lsName
	return protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  msg,
	}
}

// Hover describes the statement around offset: its derivation count and
// its first derivation. ok is false outside every statement.
func (a *Analyzer) Hover(text string, offset int) (content string, r protocol.Range, ok bool) {
	for _, stmt := range Statements(text) {
		if offset < stmt.Offset || offset > stmt.End() {
			continue
		}
		r = rangeOf(text, stmt.Offset, stmt.End())
		f, err := a.parser.Parse(stmt.Text)
		if err != nil {
			return fmt.Sprintf("**syntax error**\n\n%s", err), r, true
		}
		tree, err := f.Derivation(0)
		if err != nil {
			return err.Error(), r, true
		}
		var buf bytes.Buffer
		if err := format.NewTreeTextEncoder(&buf, termenv.Ascii).Encode(tree); err != nil {
			return err.Error(), r, true
		}
		return fmt.Sprintf("**derivations:** %s\n\n```\n%s```", f.DerivationCount(), buf.String()), r, true
	}
	return "", protocol.Range{}, false
}
