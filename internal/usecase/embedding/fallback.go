package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/metrics"
)

// FallbackEmbedder tries the primary provider first and falls back to the
// secondary on any provider error. The two providers must produce vectors of
// the same dimensionality; config validation enforces that.
type FallbackEmbedder struct {
	primary          domain.Embedder
	fallback         domain.Embedder
	fallbackProvider string
	timeout          time.Duration
	logger           *zap.Logger
}

// NewFallbackEmbedder creates the chain. fallback may be nil, in which case
// primary errors surface as domain.ErrEmbeddingUnavailable directly. timeout
// bounds the whole chain; the primary gets at most half of it so the
// fallback always has budget left.
func NewFallbackEmbedder(
	primary, fallback domain.Embedder, fallbackProvider string,
	timeout time.Duration, logger *zap.Logger,
) *FallbackEmbedder {
	return &FallbackEmbedder{
		primary:          primary,
		fallback:         fallback,
		fallbackProvider: fallbackProvider,
		timeout:          timeout,
		logger:           logger,
	}
}

// Embed implements domain.Embedder.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	primaryCtx := ctx
	var primaryCancel context.CancelFunc
	if f.fallback != nil {
		primaryCtx, primaryCancel = context.WithTimeout(ctx, f.timeout/2)
		defer primaryCancel()
	}

	result, primaryErr := f.primary.Embed(primaryCtx, text)
	if primaryErr == nil {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		// The whole chain's budget is gone; the fallback cannot help.
		return domain.EmbeddingResult{}, fmt.Errorf("%v: %w", primaryErr, domain.ErrEmbeddingUnavailable)
	}

	if f.fallback == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%v: %w", primaryErr, domain.ErrEmbeddingUnavailable)
	}

	f.logger.Warn("primary embedder failed, using fallback",
		zap.String("fallback_provider", f.fallbackProvider),
		zap.Error(primaryErr),
	)
	metrics.EmbeddingFallbacksTotal.WithLabelValues(f.fallbackProvider).Inc()

	result, fallbackErr := f.fallback.Embed(ctx, text)
	if fallbackErr != nil {
		return domain.EmbeddingResult{}, fmt.Errorf(
			"primary: %v; fallback: %v: %w", primaryErr, fallbackErr, domain.ErrEmbeddingUnavailable)
	}
	return result, nil
}
