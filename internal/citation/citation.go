// Package citation formats result metadata as reference strings in APA,
// MLA or Chicago style.
package citation

import (
	"fmt"
	"strings"
)

// Style names a citation style.
type Style string

const (
	StyleAPA     Style = "apa"
	StyleMLA     Style = "mla"
	StyleChicago Style = "chicago"
)

// Placeholders for missing metadata.
const (
	DefaultAuthor = "Anon"
	DefaultYear   = "n.d."
	DefaultTitle  = "Untitled"
	DefaultSource = "Web"
)

// ParseStyle maps a case-insensitive name to a Style.
func ParseStyle(name string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(name))) {
	case StyleAPA, "":
		return StyleAPA, nil
	case StyleMLA:
		return StyleMLA, nil
	case StyleChicago:
		return StyleChicago, nil
	default:
		return "", fmt.Errorf("unknown citation style %q (valid: apa, mla, chicago)", name)
	}
}

// Meta is the metadata a citation is built from. Empty fields fall back to
// placeholders.
type Meta struct {
	Author    string
	Title     string
	Source    string
	URL       string
	Published string
}

// Complete reports whether every field needed for a full citation is set.
func (m Meta) Complete() bool {
	return m.Author != "" && m.Title != "" && m.Source != "" && m.URL != ""
}

// Format renders m in the given style. Unknown styles render as APA.
func Format(m Meta, style Style) string {
	author := orDefault(m.Author, DefaultAuthor)
	title := orDefault(m.Title, DefaultTitle)
	source := orDefault(m.Source, DefaultSource)
	year := year(m.Published)

	switch style {
	case StyleMLA:
		return fmt.Sprintf("%s. \"%s.\" %s, %s, %s.", author, title, source, year, m.URL)
	case StyleChicago:
		return fmt.Sprintf("%s. \"%s.\" %s (%s): %s.", author, title, source, year, m.URL)
	default:
		return fmt.Sprintf("%s. (%s). %s. %s. %s", author, year, title, source, m.URL)
	}
}

func year(published string) string {
	published = strings.TrimSpace(published)
	if len(published) < 4 {
		return DefaultYear
	}
	return published[:4]
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Formatter renders an ordered list of citations, dropping exact duplicates
// while keeping first-seen order.
type Formatter struct {
	Style Style
}

// NewFormatter creates a formatter for style.
func NewFormatter(style Style) *Formatter {
	return &Formatter{Style: style}
}

// FormatAll renders each distinct Meta once.
func (f *Formatter) FormatAll(metas []Meta) []string {
	seen := make(map[Meta]struct{}, len(metas))
	out := make([]string, 0, len(metas))
	for _, m := range metas {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, Format(m, f.Style))
	}
	return out
}
