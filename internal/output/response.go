package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Aman-CERP/hybridsearch/internal/cache"
	"github.com/Aman-CERP/hybridsearch/internal/search"
	"github.com/Aman-CERP/hybridsearch/internal/telemetry"
)

// snippetRunes bounds the content preview of each result.
const snippetRunes = 160

// ResponseRenderer writes search responses as styled text.
type ResponseRenderer struct {
	out    io.Writer
	styles Styles
}

// NewResponseRenderer creates a renderer that styles output only when out
// is a color-capable terminal.
func NewResponseRenderer(out io.Writer) *ResponseRenderer {
	return &ResponseRenderer{out: out, styles: GetStyles(!UseColor(out))}
}

// NewPlainResponseRenderer creates a renderer that never styles output.
func NewPlainResponseRenderer(out io.Writer) *ResponseRenderer {
	return &ResponseRenderer{out: out, styles: NoColorStyles()}
}

// Render writes resp.
func (r *ResponseRenderer) Render(resp *search.SearchResponse) {
	s := r.styles

	summary := fmt.Sprintf("%d results, %dms", resp.TotalResults, resp.ResponseTimeMs)
	if resp.Cached {
		summary += ", cached"
	}
	r.printf("%s %s %s\n",
		s.Header.Render("Search:"),
		fmt.Sprintf("%q (%s)", resp.Query, resp.SearchType),
		s.Dim.Render(summary))

	r.printf("%s %.2f (%s)", s.Label.Render("Confidence:"), resp.Confidence, r.quality(resp.Quality))
	if len(resp.Sources) > 0 {
		r.printf("   %s %s", s.Label.Render("Sources:"), strings.Join(resp.Sources, ", "))
	}
	r.printf("\n")
	if len(resp.Degraded) > 0 {
		r.printf("%s %s\n", s.Warning.Render("Degraded:"), strings.Join(resp.Degraded, ", "))
	}

	if len(resp.Results) == 0 {
		r.printf("\n%s\n", s.Dim.Render("No results."))
		return
	}

	r.printf("\n")
	for i, c := range resp.Results {
		title := c.Metadata.Title
		if title == "" {
			title = c.ID
		}
		origin := string(c.SourceType)
		if c.Metadata.Source != "" && c.Metadata.Source != origin {
			origin += " · " + c.Metadata.Source
		}
		r.printf("%2d. %s %s %s\n", i+1, s.Score.Render(fmt.Sprintf("[%.3f]", c.Score)), title, s.Dim.Render("("+origin+")"))
		r.printf("    %s\n", Truncate(oneLine(c.Content), snippetRunes))
		if c.Metadata.URL != "" {
			r.printf("    %s\n", s.Label.Render(c.Metadata.URL))
		}
	}

	if len(resp.Citations) > 0 {
		r.printf("\n%s\n", s.Header.Render("Citations"))
		for i, cite := range resp.Citations {
			r.printf("  [%d] %s\n", i+1, cite)
		}
	}
}

// RenderStats writes the cache counters and every non-zero pipeline counter.
func (r *ResponseRenderer) RenderStats(cs cache.Stats, counters []telemetry.CounterValue) {
	s := r.styles
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Header.Render("Stats"))
	fmt.Fprintf(&b, "cache: hits=%d misses=%d computes=%d shared=%d\n", cs.Hits, cs.Misses, cs.Computes, cs.Shared)

	sort.Slice(counters, func(i, j int) bool {
		if counters[i].Name != counters[j].Name {
			return counters[i].Name < counters[j].Name
		}
		return labelString(counters[i].Labels) < labelString(counters[j].Labels)
	})
	for _, cv := range counters {
		if cv.Value == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s%s %g\n", cv.Name, labelString(cv.Labels), cv.Value)
	}
	r.printf("\n%s\n", s.Panel.Render(strings.TrimRight(b.String(), "\n")))
}

func (r *ResponseRenderer) quality(q search.Quality) string {
	switch q {
	case search.QualityHigh:
		return r.styles.Success.Render(string(q))
	case search.QualityMedium:
		return r.styles.Warning.Render(string(q))
	default:
		return r.styles.Error.Render(string(q))
	}
}

func (r *ResponseRenderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + labels[k]
	}
	return "{" + strings.Join(parts, ",") + "}"
}
