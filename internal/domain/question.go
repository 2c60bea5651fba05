package domain

import (
	"fmt"
	"time"
)

// UnansweredQuestion is an audit record of a query that escalated to the
// external provider, pending curator review
type UnansweredQuestion struct {
	ID           string
	QuestionText string
	SessionID    string
	Media        *MediaRef
	CreatedAt    time.Time
	// KnowledgeBaseRef is a weak reference to the entry that answered this
	// question. Empty until the generated answer is persisted; stays empty
	// forever if the provider call fails after the question was written.
	KnowledgeBaseRef string
}

// NewUnansweredQuestion creates a new UnansweredQuestion instance
func NewUnansweredQuestion(
	id, questionText, sessionID string,
	media *MediaRef,
	createdAt time.Time,
) *UnansweredQuestion {
	return &UnansweredQuestion{
		ID:           id,
		QuestionText: questionText,
		SessionID:    sessionID,
		Media:        media,
		CreatedAt:    createdAt,
	}
}

// ValidateUnansweredQuestion validates an UnansweredQuestion instance
func ValidateUnansweredQuestion(q *UnansweredQuestion) error {
	if q == nil {
		return fmt.Errorf("question cannot be nil")
	}

	if q.ID == "" {
		return fmt.Errorf("question ID is required")
	}

	if q.QuestionText == "" {
		return fmt.Errorf("question QuestionText is required")
	}

	if q.SessionID == "" {
		return fmt.Errorf("question SessionID is required")
	}

	if q.Media != nil && q.Media.Kind != "" && !isValidMediaKind(q.Media.Kind) {
		return fmt.Errorf("question media Kind is invalid: %s", q.Media.Kind)
	}

	return nil
}
