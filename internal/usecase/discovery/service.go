package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/metrics"
)

const clarificationPrompt = "Could you be more specific? Try mentioning a batch year, city, branch, skill or a person's name."

// Service runs query turns. All collaborators are injected; the service
// itself holds no mutable state and is safe for concurrent use.
type Service struct {
	store     ContextStore
	extractor Extractor
	planner   Planner
	retriever Retriever
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService creates the discovery service.
func NewService(
	store ContextStore,
	extractor Extractor,
	planner Planner,
	retriever Retriever,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		extractor: extractor,
		planner:   planner,
		retriever: retriever,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RunQuery executes one turn. Exactly one turn is appended to the session
// context on success; ambiguous, cancelled and failed turns leave the
// context untouched so a bad turn never poisons carry-over.
func (s *Service) RunQuery(ctx context.Context, req Request) (Outcome, error) {
	log := s.logger.With(
		zap.String("tenant_id", req.TenantID),
		zap.String("session_id", req.SessionID),
	)

	recent, err := s.store.Recent(ctx, req.SessionID)
	if err != nil {
		// Context is an enhancement; a broken store downgrades the turn to
		// context-free extraction.
		log.Warn("session context unavailable", zap.Error(err))
		recent = nil
	}

	extracted, err := s.extractor.Extract(ctx, req.Text, recent)
	if err != nil {
		return Outcome{}, fmt.Errorf("extract: %w", err)
	}

	if extracted.IsAmbiguous() {
		metrics.QueryTurnsTotal.WithLabelValues(string(domain.IntentAmbiguous)).Inc()
		log.Info("ambiguous query turn", zap.String("text", req.Text))
		return Outcome{
			Intent:        string(domain.IntentAmbiguous),
			Ambiguous:     true,
			Clarification: clarificationPrompt,
			Confidence:    extracted.Confidence,
		}, nil
	}

	q, err := s.planner.Plan(req.TenantID, extracted.Canonical, extracted.Filters, req.Limit, req.Offset)
	if err != nil {
		return Outcome{}, fmt.Errorf("plan: %w", err)
	}

	retrieved, err := s.retriever.Retrieve(ctx, q)
	if err != nil {
		return Outcome{}, fmt.Errorf("retrieve: %w", err)
	}

	turn := conversation.Turn{
		ID:        s.newID(),
		SessionID: req.SessionID,
		TenantID:  req.TenantID,
		Timestamp: s.now(),
		RawText:   req.Text,
		Spec:      q,
		ResultIDs: resultIDs(retrieved.Results),
	}
	if err := s.store.Append(ctx, turn); err != nil {
		// The answer is already computed; losing one turn of context is the
		// lesser failure.
		log.Warn("failed to append session turn", zap.Error(err))
	}

	metrics.QueryTurnsTotal.WithLabelValues(string(extracted.Intent)).Inc()
	log.Info("query turn complete",
		zap.String("turn_id", turn.ID),
		zap.String("intent", string(extracted.Intent)),
		zap.String("filters", q.Filters().String()),
		zap.Int("results", len(retrieved.Results)),
		zap.Strings("degraded", retrieved.Degraded),
		zap.Bool("carried_over", extracted.CarriedOver),
	)

	return Outcome{
		TurnID:      turn.ID,
		Intent:      string(extracted.Intent),
		Spec:        q,
		Results:     retrieved.Results,
		Degraded:    retrieved.Degraded,
		CarriedOver: extracted.CarriedOver,
		Confidence:  extracted.Confidence,
	}, nil
}

func resultIDs(ranked []result.Ranked) []string {
	if len(ranked) == 0 {
		return nil
	}
	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.Member().ID)
	}
	return ids
}
