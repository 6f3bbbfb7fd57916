package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"surveystat/domain/stats"
	"surveystat/domain/survey"
	"surveystat/internal/errors"
)

// Report file names.
const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

// Summary is the content of the run summary document.
type Summary struct {
	Title      string
	RunID      string
	Profile    string
	Source     string
	Analysis   *stats.Analysis
	Catalog    *survey.Catalog
	Comparison *survey.Comparison
	TopN       int
	Artifacts  []string
	Heatmap    string // relative to the report directory; omitted when empty
}

// Build renders the summary as markdown.
func Build(s Summary) []byte {
	a := s.Analysis
	var b bytes.Buffer

	title := s.Title
	if title == "" {
		title = "Correlation analysis"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if s.RunID != "" {
		fmt.Fprintf(&b, "- Run: `%s`\n", s.RunID)
	}
	if s.Profile != "" {
		fmt.Fprintf(&b, "- Profile: %s\n", s.Profile)
	}
	if s.Source != "" {
		fmt.Fprintf(&b, "- Source: `%s`\n", s.Source)
	}
	fmt.Fprintf(&b, "- Segments: %d (%d degrees of freedom, sample size mode %s)\n", a.SampleSize, a.DegreesOfFreedom, a.Mode)
	fmt.Fprintf(&b, "- Critical value: |t| > %s (alpha 0.05, two-tailed)\n\n", stats.FormatT(a.CriticalT))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Measure | Count |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Total correlation pairs analyzed | %d |\n", a.Summary.TotalPairs)
	fmt.Fprintf(&b, "| Highly significant (p<0.001) | %d |\n", a.Summary.TierCounts[stats.TierHighlySignificant])
	fmt.Fprintf(&b, "| Significant (p<0.01) | %d |\n", a.Summary.TierCounts[stats.TierSignificant])
	fmt.Fprintf(&b, "| Marginally significant (p<0.05) | %d |\n", a.Summary.TierCounts[stats.TierMarginal])
	fmt.Fprintf(&b, "| Not significant (p≥0.05) | %d |\n\n", a.Summary.TierCounts[stats.TierNotSignificant])

	if len(a.Key) > 0 {
		b.WriteString("## Key relationships\n\n")
		b.WriteString("| Relationship | r | t-value | p-value | Significance | Interpretation |\n")
		b.WriteString("|---|---:|---:|---:|:---:|---|\n")
		for _, r := range a.Key {
			fmt.Fprintf(&b, "| %s | %.2f | %s | %s | %s | %s |\n",
				cell(r.Label), r.DisplayR(), stats.FormatT(r.T), stats.FormatP(r.P), escape(string(r.Significance)), r.Interpretation)
		}
		b.WriteString("\n")

		b.WriteString("Key relationships by strength: ")
		parts := make([]string, len(stats.Strengths))
		for i, st := range stats.Strengths {
			parts[i] = fmt.Sprintf("%s %d", st, a.Summary.StrengthCounts[st])
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n\n")
	}

	if top := a.Top(s.TopN); len(top) > 0 {
		fmt.Fprintf(&b, "## Top %d strongest correlations\n\n", len(top))
		b.WriteString("| Name 1 | Name 2 | r | t | sig |\n|---|---|---:|---:|:---:|\n")
		for _, r := range top {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %s | %s |\n",
				cell(s.Catalog.Name(r.X)), cell(s.Catalog.Name(r.Y)), r.DisplayR(), stats.FormatT(r.T), escape(string(r.Significance)))
		}
		b.WriteString("\n")
	}

	if cmp := s.Comparison; cmp != nil && len(cmp.Segments) > 0 {
		b.WriteString("## Segment comparison\n\n| Indicator |")
		for _, seg := range cmp.Segments {
			fmt.Fprintf(&b, " %s |", cell(seg.Heading()))
		}
		b.WriteString("\n|---|" + strings.Repeat("---:|", len(cmp.Segments)) + "\n")
		for i, code := range cmp.Codes {
			fmt.Fprintf(&b, "| %s |", cell(s.Catalog.Name(code)))
			for _, c := range cmp.Cells[i] {
				fmt.Fprintf(&b, " %s |", c.Value.Format(1))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if s.Heatmap != "" {
		fmt.Fprintf(&b, "![Correlation heatmap](%s)\n\n", s.Heatmap)
	}

	if len(s.Artifacts) > 0 {
		b.WriteString("## Files\n\n")
		for _, f := range s.Artifacts {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}

	b.WriteString("Significance levels: \\*\\*\\* p<0.001, \\*\\* p<0.01, \\* p<0.05, ns = not significant.\n")
	return b.Bytes()
}

// ToHTML renders markdown as a standalone HTML page.
func ToHTML(md []byte, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML(md, p, renderer)
}

// Write saves report.md and report.html to dir and returns both paths.
func Write(dir string, s Summary) ([]string, error) {
	if s.Analysis == nil {
		return nil, errors.ReportError(MarkdownFile, fmt.Errorf("no analysis to report"))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ReportError(MarkdownFile, err)
	}
	md := Build(s)
	mdPath := filepath.Join(dir, MarkdownFile)
	if err := os.WriteFile(mdPath, md, 0o644); err != nil {
		return nil, errors.ReportError(MarkdownFile, err)
	}
	htmlPath := filepath.Join(dir, HTMLFile)
	if err := os.WriteFile(htmlPath, ToHTML(md, s.Title), 0o644); err != nil {
		return nil, errors.ReportError(HTMLFile, err)
	}
	return []string{mdPath, htmlPath}, nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "*", "\\*")
}
