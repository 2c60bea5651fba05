package service

import (
	"context"

	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/cloo-solutions/askbase/internal/telemetry"
)

// HistoryService lists knowledge base entries by session.
type HistoryService struct {
	entries KnowledgeBaseRepositoryInterface
}

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(entries KnowledgeBaseRepositoryInterface) *HistoryService {
	return &HistoryService{entries: entries}
}

// BySession returns every entry recorded for a session, in store-native
// order. An empty result is not an error.
func (s *HistoryService) BySession(ctx context.Context, sessionID string) ([]*domain.KnowledgeBaseEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "HistoryService.BySession", telemetry.SpanAttributes{
		SessionID: sessionID,
		Operation: "list",
	})
	defer span.End()

	if sessionID == "" {
		return nil, domain.ErrMissingSessionID
	}

	entries, err := s.entries.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to list session entries", err)
	}
	return entries, nil
}
