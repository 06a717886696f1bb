package search

// Signals describes how a result list was produced.
type Signals struct {
	// SingleRetriever is set when two retrievers were expected but only one
	// contributed candidates.
	SingleRetriever bool
	// Reranked is set when the cross-encoder scored the head of the list.
	Reranked bool
	// Degraded is set when any retriever was unavailable.
	Degraded bool
}

// Assess derives a confidence in [0,1] and its quality band from the final
// results. Confidence starts at the mean ranking key of the top k results
// and is reduced by the configured penalties. A degraded response is never
// rated high.
func Assess(results []Candidate, k int, sig Signals, cfg ConfidenceConfig) (float64, Quality) {
	n := min(k, len(results))
	var conf float64
	if n > 0 {
		var sum float64
		for _, c := range results[:n] {
			sum += c.Score
		}
		conf = sum / float64(n)
	}

	if sig.SingleRetriever {
		conf -= cfg.SingleRetrieverPenalty
	}
	if !sig.Reranked {
		conf -= cfg.NoRerankPenalty
	}
	if len(results) < k {
		conf -= cfg.ShortResultPenalty
	}
	conf = clamp01(conf)

	quality := QualityLow
	switch {
	case conf >= cfg.HighThreshold:
		quality = QualityHigh
	case conf >= cfg.MediumThreshold:
		quality = QualityMedium
	}
	if sig.Degraded && quality == QualityHigh {
		quality = QualityMedium
	}
	return conf, quality
}
