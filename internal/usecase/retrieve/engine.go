package retrieve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
	"github.com/kailas-cloud/memberscout/internal/metrics"
)

// phase tracks where a retrieval is in its lifecycle, for logs.
type phase string

const (
	phasePlanned    phase = "planned"
	phaseEmbedding  phase = "embedding"
	phaseRetrieving phase = "retrieving"
	phaseMerging    phase = "merging"
	phaseDone       phase = "done"
	phaseFailed     phase = "failed"
)

// Degradation reasons surfaced in Retrieved and the degraded metric.
const (
	DegradedEmbedding = "embedding_unavailable"
	DegradedLexical   = "lexical_failed"
	DegradedVector    = "vector_failed"
)

// Retrieved is a completed retrieval. Degraded lists the sources that could
// not contribute; empty means both sub-searches ran.
type Retrieved struct {
	Results  []result.Ranked
	Degraded []string
}

// EngineConfig holds the merge and scheduling knobs.
type EngineConfig struct {
	LexicalWeight    float64
	VectorWeight     float64
	SingleSourceDamp float64
	// OverfetchFactor multiplies the requested limit for each sub-search so
	// the merge has enough candidates after deduplication.
	OverfetchFactor  int
	SubSearchTimeout time.Duration
}

// Engine executes specs against the lexical and vector indexes.
type Engine struct {
	embedder domain.Embedder
	lexical  LexicalIndex
	vector   VectorIndex
	cfg      EngineConfig
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(
	embedder domain.Embedder,
	lexical LexicalIndex,
	vector VectorIndex,
	cfg EngineConfig,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		embedder: embedder,
		lexical:  lexical,
		vector:   vector,
		cfg:      cfg,
		logger:   logger,
	}
}

type subResult struct {
	hits []result.Hit
	err  error
}

// Retrieve runs both sub-searches and merges their hits. The lexical
// sub-search starts immediately; the vector sub-search waits for the query
// embedding. A failed source degrades the retrieval instead of failing it;
// only when no source delivers does Retrieve return
// domain.ErrTotalRetrievalFailure.
func (e *Engine) Retrieve(ctx context.Context, q spec.Spec) (Retrieved, error) {
	log := e.logger.With(
		zap.String("tenant_id", q.TenantID()),
		zap.Int("limit", q.Limit()),
	)
	log.Debug("retrieval started", zap.String("phase", string(phasePlanned)),
		zap.String("filters", q.Filters().String()))

	// Overfetch covers the skipped offset too, so later pages still have
	// candidates to rank.
	topK := (q.Limit() + q.Offset()) * e.cfg.OverfetchFactor
	if topK < q.Limit()+q.Offset() {
		topK = q.Limit() + q.Offset()
	}

	lexCh := make(chan subResult, 1)
	go func() {
		hits, err := e.runSubSearch(ctx, "lexical", func(sctx context.Context) ([]result.Hit, error) {
			return e.lexical.SearchText(sctx, q, topK)
		})
		lexCh <- subResult{hits: hits, err: err}
	}()

	var degraded []string

	vecCh := make(chan subResult, 1)
	vecStarted := false
	if q.Text() == "" {
		vecCh <- subResult{}
	} else {
		log.Debug("embedding query text", zap.String("phase", string(phaseEmbedding)))
		emb, err := e.embedder.Embed(ctx, q.Text())
		if err != nil {
			log.Warn("query embedding unavailable, lexical only", zap.Error(err))
			metrics.RetrievalDegradedTotal.WithLabelValues(DegradedEmbedding).Inc()
			degraded = append(degraded, DegradedEmbedding)
			vecCh <- subResult{}
		} else {
			vecStarted = true
			go func() {
				hits, err := e.runSubSearch(ctx, "vector", func(sctx context.Context) ([]result.Hit, error) {
					return e.vector.SearchVector(sctx, q, emb.Embedding, topK)
				})
				vecCh <- subResult{hits: hits, err: err}
			}()
		}
	}

	log.Debug("awaiting sub-searches", zap.String("phase", string(phaseRetrieving)))
	lex, vec := <-lexCh, <-vecCh

	lexOK := lex.err == nil
	if !lexOK {
		log.Warn("lexical sub-search failed", zap.Error(lex.err))
		metrics.RetrievalDegradedTotal.WithLabelValues(DegradedLexical).Inc()
		degraded = append(degraded, DegradedLexical)
	}
	vecOK := vecStarted && vec.err == nil
	if vecStarted && vec.err != nil {
		log.Warn("vector sub-search failed", zap.Error(vec.err))
		metrics.RetrievalDegradedTotal.WithLabelValues(DegradedVector).Inc()
		degraded = append(degraded, DegradedVector)
	}

	if !lexOK && !vecOK {
		// A cancelled caller is not a retrieval outage.
		if err := ctx.Err(); err != nil {
			return Retrieved{}, fmt.Errorf("retrieval interrupted: %w", err)
		}
		log.Error("all retrieval sources failed", zap.String("phase", string(phaseFailed)),
			zap.NamedError("lexical", lex.err), zap.NamedError("vector", vec.err))
		return Retrieved{}, fmt.Errorf("lexical: %v; vector: %v: %w",
			lex.err, vec.err, domain.ErrTotalRetrievalFailure)
	}

	log.Debug("merging sub-search hits", zap.String("phase", string(phaseMerging)),
		zap.Int("lexical_hits", len(lex.hits)), zap.Int("vector_hits", len(vec.hits)))

	ranked := mergeHits(q, lex.hits, vec.hits, lexOK && vecOK, mergeWeights{
		lexical: e.cfg.LexicalWeight,
		vector:  e.cfg.VectorWeight,
		damp:    e.cfg.SingleSourceDamp,
	})

	log.Debug("retrieval complete", zap.String("phase", string(phaseDone)),
		zap.Int("results", len(ranked)), zap.Strings("degraded", degraded))

	return Retrieved{Results: ranked, Degraded: degraded}, nil
}

// runSubSearch applies the per-source timeout and records metrics.
func (e *Engine) runSubSearch(
	ctx context.Context, source string,
	fn func(ctx context.Context) ([]result.Hit, error),
) ([]result.Hit, error) {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.SubSearchTimeout)
	defer cancel()

	start := time.Now()
	hits, err := fn(sctx)
	metrics.SubSearchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.SubSearchesTotal.WithLabelValues(source, "ok").Inc()
		return hits, nil
	case errors.Is(err, context.DeadlineExceeded):
		metrics.SubSearchesTotal.WithLabelValues(source, "timeout").Inc()
		return nil, fmt.Errorf("%s sub-search timed out: %w", source, err)
	default:
		metrics.SubSearchesTotal.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("%s sub-search: %w", source, err)
	}
}
