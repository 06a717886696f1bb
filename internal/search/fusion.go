package search

import (
	"math"
	"sort"
)

// fusedEntry accumulates one candidate across both retriever lists.
type fusedEntry struct {
	cand       Candidate
	normDense  float64
	normSparse float64
	inDense    bool
	inSparse   bool
}

// Fuse merges dense and sparse candidates into one ranked, deduplicated list.
//
// Each list is min-max normalized over its own raw scores. A candidate in
// both lists scores w.Dense*nd + w.Sparse*ns; a candidate in one list scores
// that side's weight times its normalized score. Results are sorted by
// FusedScore descending, then candidates found by both retrievers first,
// then ID ascending. Content and metadata come from the dense list when a
// candidate appears in both.
func Fuse(dense, sparse []Candidate, w Weights) []Candidate {
	if len(dense) == 0 && len(sparse) == 0 {
		return []Candidate{}
	}

	entries := make(map[string]*fusedEntry, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))

	get := func(c Candidate) *fusedEntry {
		if e, ok := entries[c.ID]; ok {
			if e.cand.Credibility == nil && c.Credibility != nil {
				e.cand.Credibility = clonePtr(c.Credibility)
			}
			return e
		}
		e := &fusedEntry{cand: c.Clone()}
		e.cand.DenseScore = nil
		e.cand.SparseScore = nil
		e.cand.RerankScore = nil
		entries[c.ID] = e
		order = append(order, c.ID)
		return e
	}

	for i, n := range normalize(dense, denseRaw) {
		c := dense[i]
		e := get(c)
		if !e.inDense || n > e.normDense {
			e.normDense = n
			e.cand.DenseScore = Float(denseRaw(c))
		}
		e.inDense = true
	}
	for i, n := range normalize(sparse, sparseRaw) {
		c := sparse[i]
		e := get(c)
		if !e.inSparse || n > e.normSparse {
			e.normSparse = n
			e.cand.SparseScore = Float(sparseRaw(c))
		}
		e.inSparse = true
	}

	type ranked struct {
		cand Candidate
		both bool
	}
	out := make([]ranked, 0, len(order))
	for _, id := range order {
		e := entries[id]
		var score float64
		if e.inDense {
			score += w.Dense * e.normDense
		}
		if e.inSparse {
			score += w.Sparse * e.normSparse
		}
		e.cand.FusedScore = clamp01(score)
		out = append(out, ranked{cand: e.cand, both: e.inDense && e.inSparse})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.cand.FusedScore != b.cand.FusedScore {
			return a.cand.FusedScore > b.cand.FusedScore
		}
		if a.both != b.both {
			return a.both
		}
		return a.cand.ID < b.cand.ID
	})

	results := make([]Candidate, len(out))
	for i, r := range out {
		results[i] = r.cand
	}
	return results
}

func denseRaw(c Candidate) float64 {
	if c.DenseScore == nil {
		return 0
	}
	return *c.DenseScore
}

func sparseRaw(c Candidate) float64 {
	if c.SparseScore == nil {
		return 0
	}
	return *c.SparseScore
}

// normalize min-max scales raw scores into [0,1]. A single candidate, or a
// list whose scores are all equal, normalizes to 1.0. NaN scores count as
// the list minimum.
func normalize(cands []Candidate, raw func(Candidate) float64) []float64 {
	out := make([]float64, len(cands))
	if len(cands) == 0 {
		return out
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range cands {
		v := raw(c)
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if math.IsInf(lo, 1) || hi == lo {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}

	span := hi - lo
	for i, c := range cands {
		v := raw(c)
		if math.IsNaN(v) {
			continue
		}
		out[i] = clamp01((v - lo) / span)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
