package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Statement is one ';'-terminated query of a document.
type Statement struct {
	Text   string
	Offset int // byte offset of Text in the document
}

// End returns the byte offset just past the statement.
func (s Statement) End() int {
	return s.Offset + len(s.Text)
}

// Statements splits a document at every ';' outside a quoted string and
// trims surrounding whitespace. Blank statements are dropped.
func Statements(text string) []Statement {
	var stmts []Statement
	add := func(start, end int) {
		raw := text[start:end]
		trimmed := strings.TrimLeft(raw, " \t\r\n")
		offset := start + len(raw) - len(trimmed)
		trimmed = strings.TrimRight(trimmed, " \t\r\n")
		if trimmed != "" {
			stmts = append(stmts, Statement{Text: trimmed, Offset: offset})
		}
	}

	start := 0
	var quote rune
	escaped := false
	for i, r := range text {
		switch {
		case escaped:
			escaped = false
		case quote != 0:
			if r == '\\' && quote == '"' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ';':
			add(start, i)
			start = i + 1
		}
	}
	add(start, len(text))
	return stmts
}

// positionAt converts a byte offset into an LSP position, counting
// characters in UTF-16 code units.
func positionAt(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	char := 0
	for _, r := range text[lineStart:offset] {
		char += utf16.RuneLen(r)
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(char)}
}

// offsetAt converts an LSP position into a byte offset, clamped to the line.
func offsetAt(text string, pos protocol.Position) int {
	offset := 0
	for line := 0; line < int(pos.Line); line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}
		offset += i + 1
	}

	units := 0
	for offset < len(text) && units < int(pos.Character) {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		units += utf16.RuneLen(r)
		offset += size
	}
	return offset
}

func rangeOf(text string, start, end int) protocol.Range {
	return protocol.Range{Start: positionAt(text, start), End: positionAt(text, end)}
}
