package search

import (
	"math"
	"strings"

	"github.com/Aman-CERP/hybridsearch/internal/citation"
	serrors "github.com/Aman-CERP/hybridsearch/internal/errors"
)

// Validate checks req against cfg and returns a copy with every optional
// field resolved: SearchType, K, MinCredibility, EnableCache and
// CitationStyle are always set on the result.
func Validate(req SearchRequest, cfg EngineConfig) (SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, serrors.InvalidRequest("query must not be empty")
	}

	switch req.SearchType {
	case "":
		req.SearchType = SearchTypeHybrid
	case SearchTypeDocument, SearchTypeWeb, SearchTypeHybrid:
	default:
		return req, serrors.InvalidRequest("unknown search type %q (valid: document, web, hybrid)", req.SearchType)
	}

	if req.K == 0 {
		req.K = cfg.DefaultK
	}
	if req.K < 1 || req.K > cfg.MaxK {
		return req, serrors.InvalidRequest("k must be between 1 and %d, got %d", cfg.MaxK, req.K)
	}

	if req.MinCredibility == nil {
		req.MinCredibility = Float(cfg.DefaultMinCredibility)
	} else {
		v := *req.MinCredibility
		if math.IsNaN(v) || v < 0 || v > 1 {
			return req, serrors.InvalidRequest("min_credibility must be between 0 and 1, got %v", v)
		}
		req.MinCredibility = Float(v)
	}

	if req.EnableCache == nil {
		req.EnableCache = Bool(true)
	}

	req.SourceFilter = strings.TrimSpace(req.SourceFilter)

	if req.CitationStyle == "" {
		req.CitationStyle = string(cfg.CitationStyle)
	}
	style, err := citation.ParseStyle(req.CitationStyle)
	if err != nil {
		return req, serrors.InvalidRequest("%s", err.Error())
	}
	req.CitationStyle = string(style)

	return req, nil
}
