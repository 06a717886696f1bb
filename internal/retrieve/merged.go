package retrieve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/search"
)

// Merged runs several sparse-equivalent retrievers as one. Each member's
// SparseScores are min-max normalized over its own list before the lists
// are combined, so BM25 and web scores share a scale. A candidate returned
// by more than one member keeps its highest normalized score.
//
// Merged fails only when every member fails. When some members fail it
// returns the survivors' candidates with a *search.PartialError naming
// the failed members.
type Merged struct {
	name    string
	members []search.Retriever
}

var _ search.Retriever = (*Merged)(nil)

// NewMerged creates a merged retriever over members.
func NewMerged(name string, members ...search.Retriever) (*Merged, error) {
	var live []search.Retriever
	for _, m := range members {
		if m != nil {
			live = append(live, m)
		}
	}
	if len(live) == 0 {
		return nil, ErrNoRetrievers
	}
	return &Merged{name: name, members: live}, nil
}

// Name implements search.Retriever.
func (m *Merged) Name() string { return m.name }

type memberResult struct {
	cands []search.Candidate
	err   error
}

// Retrieve queries every member concurrently and merges their answers.
func (m *Merged) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]search.Candidate, error) {
	results := make([]memberResult, len(m.members))

	g, gctx := errgroup.WithContext(ctx)
	for i, member := range m.members {
		g.Go(func() error {
			cands, err := member.Retrieve(gctx, query, k, sourceFilter)
			results[i] = memberResult{cands: cands, err: err}
			return nil // a failed member must not cancel its siblings
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		failed []string
		errs   []error
		lists  [][]search.Candidate
	)
	for i, r := range results {
		var partial *search.PartialError
		switch {
		case r.err == nil:
			lists = append(lists, r.cands)
		case errors.As(r.err, &partial):
			lists = append(lists, r.cands)
			failed = append(failed, partial.Failed...)
			errs = append(errs, r.err)
		default:
			failed = append(failed, m.members[i].Name())
			errs = append(errs, fmt.Errorf("%s: %w", m.members[i].Name(), r.err))
		}
	}

	if len(lists) == 0 {
		return nil, serrors.RetrieverUnavailable(m.name, errors.Join(errs...))
	}

	merged := mergeNormalized(lists, k)
	if len(failed) > 0 {
		return merged, &search.PartialError{Failed: failed, Err: errors.Join(errs...)}
	}
	return merged, nil
}

// mergeNormalized normalizes each list, keeps the best score per ID and
// returns up to k candidates ordered by score, then ID.
func mergeNormalized(lists [][]search.Candidate, k int) []search.Candidate {
	best := make(map[string]search.Candidate)
	for _, list := range lists {
		norm := minMax(list)
		for i, c := range list {
			c = c.Clone()
			c.SparseScore = search.Float(norm[i])
			if prev, ok := best[c.ID]; ok && *prev.SparseScore >= norm[i] {
				continue
			}
			best[c.ID] = c
		}
	}

	out := make([]search.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := *out[i].SparseScore, *out[j].SparseScore
		if si != sj {
			return si > sj
		}
		return out[i].ID < out[j].ID
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// minMax scales the SparseScores of list into [0,1]. A single candidate or
// equal scores map to 1.0; missing or NaN scores map to 0.
func minMax(list []search.Candidate) []float64 {
	out := make([]float64, len(list))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range list {
		if c.SparseScore == nil || math.IsNaN(*c.SparseScore) {
			continue
		}
		lo = math.Min(lo, *c.SparseScore)
		hi = math.Max(hi, *c.SparseScore)
	}
	for i, c := range list {
		if c.SparseScore == nil || math.IsNaN(*c.SparseScore) {
			continue
		}
		if hi == lo {
			out[i] = 1.0
			continue
		}
		out[i] = (*c.SparseScore - lo) / (hi - lo)
	}
	return out
}
