// Package report renders a dashboard as an executive summary.
package report

import (
	"fmt"
	"strings"

	"hsedash/app"
	"hsedash/internal/aggregate"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const dateLayout = "02 Jan 2006"

// Markdown renders d as a markdown summary: headline figures, status and
// category tables, the leading objects and locations, and any data-quality
// notes.
func Markdown(d *app.Dashboard) string {
	var b strings.Builder

	b.WriteString("# HSE Findings Summary\n\n")
	fmt.Fprintf(&b, "_Generated %s. %s_\n\n", d.GeneratedAt.Format(dateLayout+" 15:04"), describeFilters(d.Filters))

	switch {
	case d.SourceEmpty:
		b.WriteString("No findings data is available. Check the configured source.\n")
		writeNotes(&b, d)
		return b.String()
	case d.FilteredEmpty:
		b.WriteString("No findings match the current filters.\n")
		return b.String()
	}

	b.WriteString("## Key figures\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total findings | %d |\n", d.KPI.TotalFindings)
	fmt.Fprintf(&b, "| Closing rate | %.1f%% |\n", d.KPI.ClosingRate)
	fmt.Fprintf(&b, "| Mean time to resolve | %.1f days |\n", d.KPI.MTTRDays)
	fmt.Fprintf(&b, "| Reporters | %d |\n", d.KPI.Participation)
	fmt.Fprintf(&b, "| Open near misses | %d |\n", d.KPI.OpenNearMiss)
	fmt.Fprintf(&b, "| Overdue | %d |\n", d.Execution.Overdue)
	b.WriteString("\n")

	writeCounts(&b, "Status", "Status", d.Status)
	writeCounts(&b, "Categories", "Category", d.Categories)
	writeCounts(&b, "Top locations", "Location", d.TopLocations)

	if len(d.TopObjects) > 0 {
		b.WriteString("## Top objects\n\n| Object | Findings | Cumulative |\n|---|---|---|\n")
		for _, item := range d.TopObjects {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", escape(item.Label), item.Count, item.Cumulative)
		}
		b.WriteString("\n")
	}

	if d.TopOpenHolder != nil {
		fmt.Fprintf(&b, "Most open findings are held by **%s** (%d).\n\n", escape(d.TopOpenHolder.Label), d.TopOpenHolder.Count)
	}

	writeNotes(&b, d)
	return b.String()
}

// HTML renders the markdown summary as an HTML fragment.
func HTML(d *app.Dashboard) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(Markdown(d)), p, renderer)
}

func writeCounts(b *strings.Builder, title, label string, counts []aggregate.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n| %s | Findings |\n|---|---|\n", title, label)
	for _, c := range counts {
		fmt.Fprintf(b, "| %s | %d |\n", escape(c.Label), c.Count)
	}
	b.WriteString("\n")
}

func writeNotes(b *strings.Builder, d *app.Dashboard) {
	if len(d.Diagnostics) == 0 {
		return
	}
	b.WriteString("## Data notes\n\n")
	for _, diag := range d.Diagnostics {
		line := diag.Code
		if diag.Column != "" {
			line += " (" + string(diag.Column) + ")"
		}
		if diag.Count > 0 {
			line += fmt.Sprintf(" x%d", diag.Count)
		}
		fmt.Fprintf(b, "- %s: %s\n", line, escape(diag.Message))
	}
	b.WriteString("\n")
}

func describeFilters(f app.Filters) string {
	var parts []string
	if f.From != nil && f.To != nil {
		parts = append(parts, fmt.Sprintf("%s to %s", f.From.Format(dateLayout), f.To.Format(dateLayout)))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, "category "+strings.Join(f.Categories, ", "))
	}
	if len(f.Statuses) > 0 {
		parts = append(parts, "status "+strings.Join(f.Statuses, ", "))
	}
	if len(f.Locations) > 0 {
		parts = append(parts, "location "+strings.Join(f.Locations, ", "))
	}
	if f.OrgUnit != "" {
		parts = append(parts, "unit "+f.OrgUnit)
	}
	if len(parts) == 0 {
		return "All findings."
	}
	return "Filtered by " + strings.Join(parts, "; ") + "."
}

// escape keeps cell text from breaking table rows.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
