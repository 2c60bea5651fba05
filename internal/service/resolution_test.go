package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloo-solutions/askbase/internal/config"
	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKnowledgeBaseRepository is a mock implementation of KnowledgeBaseRepositoryInterface
type MockKnowledgeBaseRepository struct {
	mock.Mock
}

func (m *MockKnowledgeBaseRepository) Create(ctx context.Context, e *domain.KnowledgeBaseEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockKnowledgeBaseRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeBaseEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeBaseEntry), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) GetByNormalizedQuery(ctx context.Context, normalizedQuery string) (*domain.KnowledgeBaseEntry, error) {
	args := m.Called(ctx, normalizedQuery)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeBaseEntry), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.KnowledgeBaseEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeBaseEntry), args.Error(1)
}

func (m *MockKnowledgeBaseRepository) UpdateResponse(ctx context.Context, id, response string) (*domain.KnowledgeBaseEntry, error) {
	args := m.Called(ctx, id, response)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeBaseEntry), args.Error(1)
}

// MockUnansweredQuestionRepository is a mock implementation of UnansweredQuestionRepositoryInterface
type MockUnansweredQuestionRepository struct {
	mock.Mock
}

func (m *MockUnansweredQuestionRepository) Create(ctx context.Context, q *domain.UnansweredQuestion) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockUnansweredQuestionRepository) List(ctx context.Context) ([]*domain.UnansweredQuestion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UnansweredQuestion), args.Error(1)
}

func (m *MockUnansweredQuestionRepository) ListByKnowledgeBaseRef(ctx context.Context, ref string) ([]*domain.UnansweredQuestion, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UnansweredQuestion), args.Error(1)
}

func (m *MockUnansweredQuestionRepository) SetKnowledgeBaseRef(ctx context.Context, id, ref string) error {
	args := m.Called(ctx, id, ref)
	return args.Error(0)
}

func (m *MockUnansweredQuestionRepository) DeleteByKnowledgeBaseRef(ctx context.Context, ref string) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}

// MockAnswerProvider is a mock implementation of AnswerProvider
type MockAnswerProvider struct {
	mock.Mock
}

func (m *MockAnswerProvider) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockAnswerProvider) GenerateAnswerWithImage(ctx context.Context, prompt, imageURL string) (string, error) {
	args := m.Called(ctx, prompt, imageURL)
	return args.String(0), args.Error(1)
}

// MockMediaHost is a mock implementation of MediaHost
type MockMediaHost struct {
	mock.Mock
}

func (m *MockMediaHost) UploadObject(ctx context.Context, key string, contentType string, body io.Reader) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockMediaHost) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// stubMediaReader serves fixed bytes for any stored upload
type stubMediaReader struct{}

func (stubMediaReader) Open(name string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("media-bytes")), nil
}

// MockUUIDGenerator returns a fixed sequence of ids
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}

func TestResolutionService_Resolve_Hit(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)

	svc := NewResolutionService(mockEntries, mockQuestions, mockProvider, config.UploadPolicyTextFirst)

	stored := &domain.KnowledgeBaseEntry{
		ID:              "entry-1",
		NormalizedQuery: "what is your refund policy?",
		Response:        "30 days, no questions asked",
		SessionID:       "sess-1",
	}
	mockEntries.On("GetByNormalizedQuery", mock.Anything, "what is your refund policy?").Return(stored, nil)

	res, err := svc.Resolve(ctx, ResolveInput{QueryText: "What Is Your REFUND Policy?", SessionID: "sess-2"})

	require.NoError(t, err)
	assert.Equal(t, SourceKnowledgeBase, res.Source)
	assert.Equal(t, "30 days, no questions asked", res.Answer)
	assert.Equal(t, "30 days, no questions asked from my knowledge base", res.Annotated())
	assert.Equal(t, "entry-1", res.EntryID)

	// A hit performs zero writes.
	mockQuestions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockEntries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockProvider.AssertNotCalled(t, "GenerateAnswer", mock.Anything, mock.Anything)
}

func TestResolutionService_Resolve_Miss(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)
	uuidGen := NewMockUUIDGenerator("question-id-1", "entry-id-1")

	svc := NewResolutionServiceWithUUIDGen(mockEntries, mockQuestions, mockProvider, config.UploadPolicyTextFirst, uuidGen)

	mockEntries.On("GetByNormalizedQuery", mock.Anything, "what is your refund policy?").
		Return(nil, domain.ErrEntryNotFound)

	mockQuestions.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.UnansweredQuestion) bool {
		return q.ID == "question-id-1" &&
			q.QuestionText == "What is your refund policy?" &&
			q.SessionID == "sess-1" &&
			q.Media == nil &&
			q.KnowledgeBaseRef == ""
	})).Return(nil)

	mockProvider.On("GenerateAnswer", mock.Anything, "What is your refund policy?").
		Return("30 days, no questions asked", nil)

	mockEntries.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.KnowledgeBaseEntry) bool {
		return e.ID == "entry-id-1" &&
			e.NormalizedQuery == "what is your refund policy?" &&
			e.Response == "30 days, no questions asked" &&
			e.SessionID == "sess-1" &&
			e.Media == nil
	})).Return(nil)

	mockQuestions.On("SetKnowledgeBaseRef", mock.Anything, "question-id-1", "entry-id-1").Return(nil)

	res, err := svc.Resolve(ctx, ResolveInput{QueryText: "What is your refund policy?", SessionID: "sess-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceAPI, res.Source)
	assert.Equal(t, "30 days, no questions asked from API", res.Annotated())
	assert.Equal(t, "entry-id-1", res.EntryID)
	mockEntries.AssertExpectations(t)
	mockQuestions.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestResolutionService_Resolve_ProviderFailureLeavesOrphan(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)

	svc := NewResolutionService(mockEntries, mockQuestions, mockProvider, config.UploadPolicyTextFirst)

	mockEntries.On("GetByNormalizedQuery", mock.Anything, mock.Anything).Return(nil, domain.ErrEntryNotFound)
	mockQuestions.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockProvider.On("GenerateAnswer", mock.Anything, mock.Anything).Return("", errors.New("connection refused"))

	res, err := svc.Resolve(ctx, ResolveInput{QueryText: "anything", SessionID: "sess-1"})

	require.Error(t, err)
	assert.Nil(t, res)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUpstream, domainErr.Code)

	// The audit record was written before the failure and is not rolled back.
	mockQuestions.AssertCalled(t, "Create", mock.Anything, mock.Anything)
	mockEntries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockQuestions.AssertNotCalled(t, "SetKnowledgeBaseRef", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolutionService_Resolve_Validation(t *testing.T) {
	svc := NewResolutionService(new(MockKnowledgeBaseRepository), new(MockUnansweredQuestionRepository), new(MockAnswerProvider), config.UploadPolicyTextFirst)

	_, err := svc.Resolve(context.Background(), ResolveInput{QueryText: "", SessionID: "sess-1"})
	assert.Equal(t, domain.ErrMissingQuery, err)

	_, err = svc.Resolve(context.Background(), ResolveInput{QueryText: "q", SessionID: ""})
	assert.Equal(t, domain.ErrMissingSessionID, err)
}

func TestResolutionService_ResolveUpload_TextFirst(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)
	uuidGen := NewMockUUIDGenerator("question-id-1", "entry-id-1")

	svc := NewResolutionServiceWithUUIDGen(mockEntries, mockQuestions, mockProvider, config.UploadPolicyTextFirst, uuidGen)

	mockQuestions.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.UnansweredQuestion) bool {
		return q.Media != nil && q.Media.Kind == domain.MediaKindImage && q.Media.Path == "uploads/cat.png"
	})).Return(nil)

	// Text-first sends the prompt without the media.
	mockProvider.On("GenerateAnswer", mock.Anything, "What is this?").Return("A cat", nil)

	mockEntries.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.KnowledgeBaseEntry) bool {
		return e.Media != nil && e.Media.Path == "uploads/cat.png"
	})).Return(nil)

	mockQuestions.On("SetKnowledgeBaseRef", mock.Anything, "question-id-1", "entry-id-1").Return(nil)

	res, err := svc.ResolveUpload(ctx, ResolveUploadInput{
		QueryText: "What is this?",
		SessionID: "sess-1",
		Media:     &StoredMedia{Path: "uploads/cat.png", OriginalName: "cat.png", MIMEType: "image/png"},
	})

	require.NoError(t, err)
	assert.Equal(t, SourceAPI, res.Source)
	assert.Equal(t, "A cat from API", res.Annotated())

	// The text-first policy never consults the knowledge base.
	mockEntries.AssertNotCalled(t, "GetByNormalizedQuery", mock.Anything, mock.Anything)
	mockProvider.AssertNotCalled(t, "GenerateAnswerWithImage", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolutionService_ResolveUpload_TextFirst_NoMedia(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)

	svc := NewResolutionService(mockEntries, mockQuestions, mockProvider, config.UploadPolicyTextFirst)

	mockQuestions.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.UnansweredQuestion) bool {
		return q.Media == nil
	})).Return(nil)
	mockProvider.On("GenerateAnswer", mock.Anything, "plain question").Return("plain answer", nil)
	mockEntries.On("Create", mock.Anything, mock.Anything).Return(nil)
	mockQuestions.On("SetKnowledgeBaseRef", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ResolveUpload(ctx, ResolveUploadInput{QueryText: "plain question", SessionID: "sess-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceAPI, res.Source)
}

func TestResolutionService_ResolveUpload_MediaAware_Hit(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)
	mockHost := new(MockMediaHost)

	svc := NewResolutionServiceWithMediaHost(mockEntries, mockQuestions, mockProvider, mockHost, stubMediaReader{}, config.UploadPolicyMediaAware)

	stored := &domain.KnowledgeBaseEntry{ID: "entry-1", Response: "cached answer"}
	mockEntries.On("GetByNormalizedQuery", mock.Anything, "what is this?").Return(stored, nil)

	res, err := svc.ResolveUpload(ctx, ResolveUploadInput{
		QueryText: "What is this?",
		SessionID: "sess-1",
		Media:     &StoredMedia{Path: "uploads/cat.png", OriginalName: "cat.png", MIMEType: "image/png"},
	})

	require.NoError(t, err)
	assert.Equal(t, SourceKnowledgeBase, res.Source)
	assert.Equal(t, "cached answer from my knowledge base", res.Annotated())

	// On a hit the uploaded media is discarded: nothing is hosted or written.
	mockHost.AssertNotCalled(t, "UploadObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockQuestions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolutionService_ResolveUpload_MediaAware_MissRequiresMedia(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)
	mockHost := new(MockMediaHost)

	svc := NewResolutionServiceWithMediaHost(mockEntries, mockQuestions, mockProvider, mockHost, stubMediaReader{}, config.UploadPolicyMediaAware)

	mockEntries.On("GetByNormalizedQuery", mock.Anything, mock.Anything).Return(nil, domain.ErrEntryNotFound)

	res, err := svc.ResolveUpload(ctx, ResolveUploadInput{QueryText: "What is this?", SessionID: "sess-1"})

	assert.Nil(t, res)
	assert.Equal(t, domain.ErrNoMediaUploaded, err)

	// No documents are written when the media requirement fails.
	mockQuestions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockEntries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolutionService_ResolveUpload_MediaAware_MissWithImage(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)
	mockHost := new(MockMediaHost)
	uuidGen := NewMockUUIDGenerator("question-id-1", "entry-id-1")

	svc := NewResolutionServiceWithMediaHost(mockEntries, mockQuestions, mockProvider, mockHost, stubMediaReader{}, config.UploadPolicyMediaAware)
	svc.uuidGen = uuidGen

	mockEntries.On("GetByNormalizedQuery", mock.Anything, "what is in this picture?").
		Return(nil, domain.ErrEntryNotFound)

	mockHost.On("UploadObject", mock.Anything, "cat.png", "image/png", mock.Anything).Return(nil)
	mockHost.On("GenerateDownloadURL", mock.Anything, "cat.png").
		Return("https://media.example.com/cat.png", nil)

	mockQuestions.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.UnansweredQuestion) bool {
		return q.Media != nil && q.Media.Kind == domain.MediaKindImage
	})).Return(nil)

	mockProvider.On("GenerateAnswerWithImage", mock.Anything, "What is in this picture?", "https://media.example.com/cat.png").
		Return("A cat on a keyboard", nil)

	mockEntries.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.KnowledgeBaseEntry) bool {
		return e.Media != nil && e.Media.Path == "uploads/cat.png" && e.Media.Kind == domain.MediaKindImage
	})).Return(nil)

	mockQuestions.On("SetKnowledgeBaseRef", mock.Anything, "question-id-1", "entry-id-1").Return(nil)

	res, err := svc.ResolveUpload(ctx, ResolveUploadInput{
		QueryText: "What is in this picture?",
		SessionID: "sess-1",
		Media:     &StoredMedia{Path: "uploads/cat.png", OriginalName: "cat.png", MIMEType: "image/png"},
	})

	require.NoError(t, err)
	assert.Equal(t, "A cat on a keyboard from API", res.Annotated())
	mockHost.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestResolutionService_ResolveUpload_MediaAware_VideoSentTextOnly(t *testing.T) {
	ctx := context.Background()
	mockEntries := new(MockKnowledgeBaseRepository)
	mockQuestions := new(MockUnansweredQuestionRepository)
	mockProvider := new(MockAnswerProvider)
	mockHost := new(MockMediaHost)

	svc := NewResolutionServiceWithMediaHost(mockEntries, mockQuestions, mockProvider, mockHost, stubMediaReader{}, config.UploadPolicyMediaAware)

	mockEntries.On("GetByNormalizedQuery", mock.Anything, mock.Anything).Return(nil, domain.ErrEntryNotFound)
	mockHost.On("UploadObject", mock.Anything, "clip.mp4", "video/mp4", mock.Anything).Return(nil)
	mockHost.On("GenerateDownloadURL", mock.Anything, "clip.mp4").Return("https://media.example.com/clip.mp4", nil)

	mockQuestions.On("Create", mock.Anything, mock.MatchedBy(func(q *domain.UnansweredQuestion) bool {
		return q.Media != nil && q.Media.Kind == domain.MediaKindVideo
	})).Return(nil)

	// Videos cannot be attached to the prompt; the query goes text-only.
	mockProvider.On("GenerateAnswer", mock.Anything, "Summarize this clip").Return("A short summary", nil)

	mockEntries.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.KnowledgeBaseEntry) bool {
		return e.Media != nil && e.Media.Kind == domain.MediaKindVideo
	})).Return(nil)
	mockQuestions.On("SetKnowledgeBaseRef", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := svc.ResolveUpload(ctx, ResolveUploadInput{
		QueryText: "Summarize this clip",
		SessionID: "sess-1",
		Media:     &StoredMedia{Path: "uploads/clip.mp4", OriginalName: "clip.mp4", MIMEType: "video/mp4"},
	})

	require.NoError(t, err)
	assert.Equal(t, SourceAPI, res.Source)
	mockProvider.AssertNotCalled(t, "GenerateAnswerWithImage", mock.Anything, mock.Anything, mock.Anything)
}
