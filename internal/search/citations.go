package search

import "github.com/Aman-CERP/hybridsearch/internal/citation"

// CitationFormatter renders citations for final results. Its output is
// passed through to the response and never affects ranking.
type CitationFormatter interface {
	FormatCitations(results []Candidate, style citation.Style) []string
}

// StyledCitations formats results with the citation package.
type StyledCitations struct{}

var _ CitationFormatter = StyledCitations{}

// FormatCitations renders one citation per distinct result metadata.
func (StyledCitations) FormatCitations(results []Candidate, style citation.Style) []string {
	metas := make([]citation.Meta, len(results))
	for i, c := range results {
		title := c.Metadata.Title
		if title == "" {
			title = c.Metadata.DocID
		}
		metas[i] = citation.Meta{
			Author:    c.Metadata.Author,
			Title:     title,
			Source:    c.Metadata.Source,
			URL:       c.Metadata.URL,
			Published: c.Metadata.Published,
		}
	}
	return citation.NewFormatter(style).FormatAll(metas)
}
