package normalize

import (
	"fmt"
	"strings"

	"hsedash/domain/finding"
	"hsedash/internal/errors"
)

// ResolveColumns maps each canonical column to the first header that matches
// one of its aliases, case-insensitively. Columns without a matching header
// are left out.
func ResolveColumns(headers []string, aliases map[finding.Column][]string) map[finding.Column]string {
	byLower := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, exists := byLower[key]; !exists {
			byLower[key] = h
		}
	}

	resolved := make(map[finding.Column]string)
	for _, col := range finding.SourceColumns {
		for _, alias := range aliases[col] {
			if header, ok := byLower[strings.ToLower(alias)]; ok {
				resolved[col] = header
				break
			}
		}
	}
	return resolved
}

func schemaOf(columns map[finding.Column]string) finding.Schema {
	cols := make([]finding.Column, 0, len(columns))
	for col := range columns {
		cols = append(cols, col)
	}
	return finding.NewSchema(cols...)
}

// diagnostics accumulates per-column recovery counts in first-seen order.
type diagnostics struct {
	order  []string
	counts map[string]*finding.Diagnostic
}

func newDiagnostics() *diagnostics {
	return &diagnostics{counts: make(map[string]*finding.Diagnostic)}
}

func (d *diagnostics) missing(col finding.Column) {
	d.add(errors.CodeMissingColumn, col, fmt.Sprintf("column %s not present", col))
}

func (d *diagnostics) unparseable(col finding.Column) {
	d.add(errors.CodeUnparseable, col, fmt.Sprintf("values in %s could not be parsed", col))
}

func (d *diagnostics) add(code string, col finding.Column, message string) {
	key := code + "/" + string(col)
	if existing, ok := d.counts[key]; ok {
		existing.Count++
		return
	}
	d.order = append(d.order, key)
	d.counts[key] = &finding.Diagnostic{Code: code, Column: col, Count: 1, Message: message}
}

func (d *diagnostics) list() []finding.Diagnostic {
	out := make([]finding.Diagnostic, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, *d.counts[key])
	}
	return out
}
