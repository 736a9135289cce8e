package export

import (
	"fmt"
	"io"
	"strings"

	"fluxo/internal/core"
)

// statementField is one exported column: its header label and how to render
// it from a row. The header line is derived from this list, so columns and
// header can never drift apart.
type statementField struct {
	name  string
	value func(core.StatementRow) string
}

var statementFields = []statementField{
	{"data", func(r core.StatementRow) string { return r.EffectiveDate.String() }},
	{"descricao", func(r core.StatementRow) string { return r.Entry.Description }},
	{"tipo", func(r core.StatementRow) string { return string(r.Entry.Kind) }},
	{"status", func(r core.StatementRow) string { return string(r.DisplayStatus) }},
	{"valor", func(r core.StatementRow) string { return core.FormatBRL(r.EffectiveValue.Cents) }},
	{"saldo", func(r core.StatementRow) string { return core.FormatBRL(r.RunningBalance.Cents) }},
}

// WriteStatementCSV renders a statement as CSV. Every field is double-quoted
// with embedded quotes doubled, so descriptions with commas, quotes or
// newlines survive any spreadsheet import.
func WriteStatementCSV(w io.Writer, st core.Statement) error {
	header := make([]string, len(statementFields))
	for i, f := range statementFields {
		header[i] = quote(f.name)
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, ",")); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	line := make([]string, len(statementFields))
	for _, row := range st.Rows {
		for i, f := range statementFields {
			line[i] = quote(f.value(row))
		}
		if _, err := fmt.Fprintln(w, strings.Join(line, ",")); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
