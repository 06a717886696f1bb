package search

// FilterByCredibility drops web candidates whose credibility is below min.
// Document candidates and web candidates without a credibility value pass.
// Order is preserved. It returns the kept candidates and the number dropped.
func FilterByCredibility(cands []Candidate, min float64) ([]Candidate, int) {
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.SourceType == SourceWeb && c.Credibility != nil && *c.Credibility < min {
			continue
		}
		kept = append(kept, c)
	}
	return kept, len(cands) - len(kept)
}

// filterBySource keeps candidates whose Metadata.Source equals source.
// An empty source keeps everything.
func filterBySource(cands []Candidate, source string) []Candidate {
	if source == "" {
		return cands
	}
	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Metadata.Source == source {
			kept = append(kept, c)
		}
	}
	return kept
}
