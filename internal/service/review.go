package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/cloo-solutions/askbase/internal/telemetry"
)

// ReviewService is the curator surface: it lists pending unanswered
// questions and pushes curated answers back into the knowledge base.
type ReviewService struct {
	entries   KnowledgeBaseRepositoryInterface
	questions UnansweredQuestionRepositoryInterface
}

// NewReviewService creates a new ReviewService instance
func NewReviewService(
	entries KnowledgeBaseRepositoryInterface,
	questions UnansweredQuestionRepositoryInterface,
) *ReviewService {
	return &ReviewService{entries: entries, questions: questions}
}

// ListPending returns every unanswered question, unfiltered and unsorted.
func (s *ReviewService) ListPending(ctx context.Context) ([]*domain.UnansweredQuestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReviewService.ListPending", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	questions, err := s.questions.List(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to list unanswered questions", err)
	}
	return questions, nil
}

// ResolveAnswerInput carries a curator-supplied answer for an entry.
type ResolveAnswerInput struct {
	KnowledgeBaseRef string
	Response         string
}

// ResolveAnswer writes the curated response into the referenced knowledge
// base entry and purges every unanswered question that pointed at it.
//
// The entry update is checked even though referencing questions were found
// first: the entry could have been removed independently between the two
// reads, and the purge must not run against a missing entry.
func (s *ReviewService) ResolveAnswer(ctx context.Context, input ResolveAnswerInput) (*domain.KnowledgeBaseEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "ReviewService.ResolveAnswer", telemetry.SpanAttributes{
		EntryID:   input.KnowledgeBaseRef,
		Operation: "resolve",
	})
	defer span.End()

	if input.KnowledgeBaseRef == "" {
		return nil, domain.ErrMissingKnowledgeRef
	}
	if strings.TrimSpace(input.Response) == "" {
		return nil, domain.ErrMissingCuratedAnswer
	}

	pending, err := s.questions.ListByKnowledgeBaseRef(ctx, input.KnowledgeBaseRef)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to find unanswered questions", err)
	}
	if len(pending) == 0 {
		return nil, domain.ErrNoQuestions
	}

	entry, err := s.entries.UpdateResponse(ctx, input.KnowledgeBaseRef, input.Response)
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, err
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to update knowledge base entry", err)
	}

	if _, err := s.questions.DeleteByKnowledgeBaseRef(ctx, input.KnowledgeBaseRef); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to purge unanswered questions", err)
	}

	return entry, nil
}
