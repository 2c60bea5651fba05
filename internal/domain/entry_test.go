package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"lowercases", "What Is Your Refund Policy?", "what is your refund policy?"},
		{"already lower", "hello", "hello"},
		{"mixed unicode", "Größe", "größe"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeQuery(tt.raw))
		})
	}
}

func TestClassifyMedia(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		expected MediaKind
	}{
		{"jpeg", "image/jpeg", MediaKindImage},
		{"png", "image/png", MediaKindImage},
		{"mp4", "video/mp4", MediaKindVideo},
		{"pdf", "application/pdf", MediaKindDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := ClassifyMedia("uploads/file.bin", tt.mimeType)
			require.NotNil(t, ref)
			assert.Equal(t, tt.expected, ref.Kind)
			assert.Equal(t, "uploads/file.bin", ref.Path)
		})
	}

	t.Run("unrecognized type keeps path with no kind", func(t *testing.T) {
		ref := ClassifyMedia("uploads/file.bin", "application/zip")
		require.NotNil(t, ref)
		assert.Empty(t, ref.Kind)
	})

	t.Run("no path and no recognized type yields nil", func(t *testing.T) {
		assert.Nil(t, ClassifyMedia("", "application/zip"))
	})
}

func TestNewKnowledgeBaseEntry(t *testing.T) {
	now := time.Now().UTC()
	e := NewKnowledgeBaseEntry("id-1", "What Is GDPR?", "an EU regulation", "sess-1", nil, now)

	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, "what is gdpr?", e.NormalizedQuery)
	assert.Equal(t, "an EU regulation", e.Response)
	assert.Equal(t, "sess-1", e.SessionID)
	assert.Nil(t, e.Media)
	assert.Equal(t, now, e.CreatedAt)
	assert.Equal(t, now, e.UpdatedAt)
}

func TestValidateKnowledgeBaseEntry(t *testing.T) {
	now := time.Now().UTC()

	valid := func() *KnowledgeBaseEntry {
		return NewKnowledgeBaseEntry("id-1", "query", "response", "sess-1", nil, now)
	}

	t.Run("valid entry passes", func(t *testing.T) {
		assert.NoError(t, ValidateKnowledgeBaseEntry(valid()))
	})

	t.Run("nil entry fails", func(t *testing.T) {
		assert.Error(t, ValidateKnowledgeBaseEntry(nil))
	})

	t.Run("missing fields fail", func(t *testing.T) {
		e := valid()
		e.ID = ""
		assert.Error(t, ValidateKnowledgeBaseEntry(e))

		e = valid()
		e.NormalizedQuery = ""
		assert.Error(t, ValidateKnowledgeBaseEntry(e))

		e = valid()
		e.Response = ""
		assert.Error(t, ValidateKnowledgeBaseEntry(e))

		e = valid()
		e.SessionID = ""
		assert.Error(t, ValidateKnowledgeBaseEntry(e))
	})

	t.Run("invalid media kind fails", func(t *testing.T) {
		e := valid()
		e.Media = &MediaRef{Path: "uploads/x", Kind: MediaKind("audio")}
		assert.Error(t, ValidateKnowledgeBaseEntry(e))
	})

	t.Run("media with empty kind is allowed", func(t *testing.T) {
		e := valid()
		e.Media = &MediaRef{Path: "uploads/x"}
		assert.NoError(t, ValidateKnowledgeBaseEntry(e))
	})
}
