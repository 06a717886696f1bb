package retrieve

import (
	"context"
	"errors"

	"github.com/sony/gobreaker/v2"

	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
	"github.com/Aman-CERP/hybridsearch/internal/resilience"
	"github.com/Aman-CERP/hybridsearch/internal/search"
)

// Breaker wraps a retriever in a circuit breaker. While the breaker is
// open, Retrieve fails immediately with RetrieverUnavailable instead of
// waiting out the retriever's timeout.
type Breaker struct {
	inner search.Retriever
	cb    *gobreaker.CircuitBreaker[[]search.Candidate]
}

var _ search.Retriever = (*Breaker)(nil)

// NewBreaker wraps inner. Caller cancellations and partial answers do not
// count as failures.
func NewBreaker(inner search.Retriever, cfg resilience.BreakerConfig) *Breaker {
	return &Breaker{
		inner: inner,
		cb: resilience.NewBreaker[[]search.Candidate](inner.Name(), cfg, func(err error) bool {
			var partial *search.PartialError
			return !errors.Is(err, context.Canceled) && !errors.As(err, &partial)
		}),
	}
}

// Name returns the wrapped retriever's name.
func (b *Breaker) Name() string { return b.inner.Name() }

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Retrieve calls the wrapped retriever through the breaker.
func (b *Breaker) Retrieve(ctx context.Context, query string, k int, sourceFilter string) ([]search.Candidate, error) {
	cands, err := b.cb.Execute(func() ([]search.Candidate, error) {
		return b.inner.Retrieve(ctx, query, k, sourceFilter)
	})
	if resilience.IsOpen(err) {
		return nil, serrors.RetrieverUnavailable(b.inner.Name(), err)
	}
	return cands, err
}
