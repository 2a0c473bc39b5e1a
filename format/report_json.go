package format

import (
	"encoding/json"
	"io"
	"math/big"

	"github.com/dhamidi/ambig/ebnf/parse"
)

// Report describes one parsed input and the derivation selected from it.
type Report struct {
	Query  string
	Forest *parse.Forest
	Index  int
	Tree   *parse.Node
}

// ReportJSONEncoder writes reports as JSON objects with the input, its
// ambiguity, the derivation count and the selected tree.
type ReportJSONEncoder struct {
	w       io.Writer
	reports []Report
}

func NewReportJSONEncoder(w io.Writer) *ReportJSONEncoder {
	return &ReportJSONEncoder{w: w}
}

// Encode writes a single report as an object, several as an array.
func (e *ReportJSONEncoder) Encode(reports ...Report) error {
	e.reports = reports
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *ReportJSONEncoder) MarshalText() ([]byte, error) {
	if len(e.reports) == 1 {
		return json.MarshalIndent(reportToJSON(e.reports[0]), "", "  ")
	}
	out := make([]jsonReport, len(e.reports))
	for i, r := range e.reports {
		out[i] = reportToJSON(r)
	}
	return json.MarshalIndent(out, "", "  ")
}

type jsonReport struct {
	Query           string    `json:"query"`
	IsAmbiguous     bool      `json:"is_ambiguous"`
	DerivationCount *big.Int  `json:"derivation_count"`
	Index           int       `json:"index"`
	Tree            *jsonNode `json:"tree"`
}

func reportToJSON(r Report) jsonReport {
	jr := jsonReport{
		Query: r.Query,
		Index: r.Index,
		Tree:  nodeToJSON(r.Tree),
	}
	if r.Forest != nil {
		jr.IsAmbiguous = r.Forest.IsAmbiguous()
		jr.DerivationCount = r.Forest.DerivationCount()
	}
	return jr
}
