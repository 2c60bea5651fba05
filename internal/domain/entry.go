package domain

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind classifies an uploaded media reference
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindDocument MediaKind = "document"
)

// MediaRef is an optional pointer to a stored media file
type MediaRef struct {
	Path string
	Kind MediaKind
}

// ClassifyMedia maps a MIME type onto a MediaKind strictly by prefix.
// Unrecognized types yield nil (stored with no media flags).
func ClassifyMedia(path, mimeType string) *MediaRef {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return &MediaRef{Path: path, Kind: MediaKindImage}
	case strings.HasPrefix(mimeType, "video/"):
		return &MediaRef{Path: path, Kind: MediaKindVideo}
	case mimeType == "application/pdf":
		return &MediaRef{Path: path, Kind: MediaKindDocument}
	}
	if path != "" {
		return &MediaRef{Path: path}
	}
	return nil
}

// KnowledgeBaseEntry is a resolved query→response pair in the knowledge base
type KnowledgeBaseEntry struct {
	ID              string
	NormalizedQuery string
	Response        string
	Media           *MediaRef
	SessionID       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeQuery case-folds a raw query into the knowledge-base lookup key
func NormalizeQuery(raw string) string {
	return strings.ToLower(raw)
}

// NewKnowledgeBaseEntry creates a new KnowledgeBaseEntry instance
func NewKnowledgeBaseEntry(
	id, rawQuery, response, sessionID string,
	media *MediaRef,
	createdAt time.Time,
) *KnowledgeBaseEntry {
	return &KnowledgeBaseEntry{
		ID:              id,
		NormalizedQuery: NormalizeQuery(rawQuery),
		Response:        response,
		Media:           media,
		SessionID:       sessionID,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

// ValidateKnowledgeBaseEntry validates a KnowledgeBaseEntry instance
func ValidateKnowledgeBaseEntry(e *KnowledgeBaseEntry) error {
	if e == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("entry ID is required")
	}

	if e.NormalizedQuery == "" {
		return fmt.Errorf("entry NormalizedQuery is required")
	}

	if e.Response == "" {
		return fmt.Errorf("entry Response is required")
	}

	if e.SessionID == "" {
		return fmt.Errorf("entry SessionID is required")
	}

	if e.Media != nil && e.Media.Kind != "" && !isValidMediaKind(e.Media.Kind) {
		return fmt.Errorf("entry media Kind is invalid: %s", e.Media.Kind)
	}

	return nil
}

// isValidMediaKind checks if a MediaKind is valid
func isValidMediaKind(k MediaKind) bool {
	switch k {
	case MediaKindImage, MediaKindVideo, MediaKindDocument:
		return true
	}
	return false
}
