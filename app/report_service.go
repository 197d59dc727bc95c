package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"decisionsim/adapters/excel"
	"decisionsim/domain/session"
	"decisionsim/domain/stage"
)

// Export formats understood by ReportService.Write
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatXLSX     = "xlsx"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// ReportService renders summaries for download and display
type ReportService struct {
	set *stage.Set
}

// NewReportService creates a report service for set
func NewReportService(set *stage.Set) *ReportService {
	return &ReportService{set: set}
}

// ContentType returns the MIME type of an export format
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Write renders summary in format. history is only used by the XLSX export.
func (r *ReportService) Write(w io.Writer, format string, summary session.Summary, history []session.Summary) error {
	switch format {
	case FormatJSON:
		return r.JSON(w, summary)
	case FormatCSV:
		return excel.WriteCSV(w, excel.TrailTable(r.set.Aspects, summary.Trail))
	case FormatXLSX:
		return r.XLSX(w, summary, history)
	case FormatMarkdown:
		_, err := w.Write(r.Markdown(summary))
		return err
	case FormatHTML:
		_, err := w.Write(r.HTML(summary))
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// JSON writes the summary as indented JSON
func (r *ReportService) JSON(w io.Writer, summary session.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// XLSX writes a workbook with the summary, the decision trail and, when
// given, the history of completed sessions
func (r *ReportService) XLSX(w io.Writer, summary session.Summary, history []session.Summary) error {
	sheets := []excel.Sheet{
		{Name: "Resumo", Table: excel.SummaryTable(r.set.Aspects, summary)},
		{Name: "Trilha", Table: excel.TrailTable(r.set.Aspects, summary.Trail)},
	}
	if len(history) > 0 {
		sheets = append(sheets, excel.Sheet{Name: "Histórico", Table: excel.HistoryTable(r.set.Aspects, history)})
	}
	return excel.WriteXLSX(w, sheets...)
}

// Markdown renders the summary as a Markdown document
func (r *ReportService) Markdown(summary session.Summary) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", r.set.Title)
	fmt.Fprintf(&b, "**Perfil:** %s  \n", summary.Band)
	fmt.Fprintf(&b, "**Média:** %.2f (%d)  \n", summary.Average, summary.Rounded)
	fmt.Fprintf(&b, "**Risco:** %s\n\n", summary.Risk)

	b.WriteString("## Pontuação\n\n| Aspecto | Valor |\n|---|---|\n")
	for _, def := range r.set.Aspects.Definitions() {
		fmt.Fprintf(&b, "| %s | %d |\n", def.Label, summary.Score[def.Key])
	}

	b.WriteString("\n## Trilha de decisões\n\n| # | Etapa | Escolha | Impacto |\n|---|---|---|---|\n")
	for _, e := range summary.Trail {
		impact := e.Effect.Format(r.set.Aspects)
		if impact == "" {
			impact = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", e.Ordinal, cell(e.Title), cell(e.Choice), cell(impact))
	}

	b.WriteString("\n## Recomendações\n\n")
	for _, rec := range summary.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	return b.Bytes()
}

// HTML renders the Markdown report to an HTML fragment
func (r *ReportService) HTML(summary session.Summary) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return markdown.ToHTML(r.Markdown(summary), p, renderer)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
