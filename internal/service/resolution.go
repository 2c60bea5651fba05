package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloo-solutions/askbase/internal/config"
	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/cloo-solutions/askbase/internal/telemetry"
	"github.com/google/uuid"
)

// KnowledgeBaseRepositoryInterface defines the repository interface for knowledge base persistence
type KnowledgeBaseRepositoryInterface interface {
	Create(ctx context.Context, e *domain.KnowledgeBaseEntry) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeBaseEntry, error)
	GetByNormalizedQuery(ctx context.Context, normalizedQuery string) (*domain.KnowledgeBaseEntry, error)
	ListBySession(ctx context.Context, sessionID string) ([]*domain.KnowledgeBaseEntry, error)
	UpdateResponse(ctx context.Context, id, response string) (*domain.KnowledgeBaseEntry, error)
}

// UnansweredQuestionRepositoryInterface defines the repository interface for unanswered question persistence
type UnansweredQuestionRepositoryInterface interface {
	Create(ctx context.Context, q *domain.UnansweredQuestion) error
	List(ctx context.Context) ([]*domain.UnansweredQuestion, error)
	ListByKnowledgeBaseRef(ctx context.Context, ref string) ([]*domain.UnansweredQuestion, error)
	SetKnowledgeBaseRef(ctx context.Context, id, ref string) error
	DeleteByKnowledgeBaseRef(ctx context.Context, ref string) (int64, error)
}

// AnswerProvider defines the external generative answer capability
type AnswerProvider interface {
	GenerateAnswer(ctx context.Context, prompt string) (string, error)
	GenerateAnswerWithImage(ctx context.Context, prompt, imageURL string) (string, error)
}

// MediaHost uploads stored media somewhere the answer provider can fetch it
type MediaHost interface {
	UploadObject(ctx context.Context, key string, contentType string, body io.Reader) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

// MediaReader opens previously stored upload files
type MediaReader interface {
	Open(name string) (io.ReadCloser, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// Source records where an answer came from
type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceAPI           Source = "api"
)

// Provenance suffixes appended to the wire response. Byte-for-byte contract
// with existing clients; do not reword.
const (
	suffixKnowledgeBase = " from my knowledge base"
	suffixAPI           = " from API"
)

// Resolution is the outcome of resolving a query
type Resolution struct {
	Answer  string
	Source  Source
	EntryID string
}

// Annotated returns the answer with its provenance suffix attached.
func (r *Resolution) Annotated() string {
	if r.Source == SourceKnowledgeBase {
		return r.Answer + suffixKnowledgeBase
	}
	return r.Answer + suffixAPI
}

// ResolveInput represents a plain text query
type ResolveInput struct {
	QueryText string
	SessionID string
}

// StoredMedia describes an uploaded file already persisted by the upload store
type StoredMedia struct {
	Path         string
	OriginalName string
	MIMEType     string
}

// ResolveUploadInput represents a query with an optional media attachment
type ResolveUploadInput struct {
	QueryText string
	SessionID string
	Media     *StoredMedia
}

// ResolutionService resolves queries against the knowledge base, escalating
// misses to the answer provider and recording them for curator review.
type ResolutionService struct {
	entries   KnowledgeBaseRepositoryInterface
	questions UnansweredQuestionRepositoryInterface
	provider  AnswerProvider
	mediaHost MediaHost
	uploads   MediaReader
	policy    config.UploadPolicy
	uuidGen   UUIDGenerator
}

// NewResolutionService creates a new ResolutionService instance
func NewResolutionService(
	entries KnowledgeBaseRepositoryInterface,
	questions UnansweredQuestionRepositoryInterface,
	provider AnswerProvider,
	policy config.UploadPolicy,
) *ResolutionService {
	return &ResolutionService{
		entries:   entries,
		questions: questions,
		provider:  provider,
		policy:    policy,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewResolutionServiceWithMediaHost creates a ResolutionService that can host
// uploaded media for the provider (required by the media-aware policy).
func NewResolutionServiceWithMediaHost(
	entries KnowledgeBaseRepositoryInterface,
	questions UnansweredQuestionRepositoryInterface,
	provider AnswerProvider,
	mediaHost MediaHost,
	uploads MediaReader,
	policy config.UploadPolicy,
) *ResolutionService {
	return &ResolutionService{
		entries:   entries,
		questions: questions,
		provider:  provider,
		mediaHost: mediaHost,
		uploads:   uploads,
		policy:    policy,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// NewResolutionServiceWithUUIDGen creates a ResolutionService with a custom UUID generator (for testing)
func NewResolutionServiceWithUUIDGen(
	entries KnowledgeBaseRepositoryInterface,
	questions UnansweredQuestionRepositoryInterface,
	provider AnswerProvider,
	policy config.UploadPolicy,
	uuidGen UUIDGenerator,
) *ResolutionService {
	return &ResolutionService{
		entries:   entries,
		questions: questions,
		provider:  provider,
		policy:    policy,
		uuidGen:   uuidGen,
	}
}

// Resolve answers a text query from the knowledge base, or escalates to the
// answer provider on a miss.
//
// A miss performs two inserts and one update: the unanswered question is
// written before the provider is called so an audit record exists even when
// the call fails. The sequence is deliberately not transactional — a
// provider or store failure after the first insert leaves the question
// permanently unlinked, matching the source system.
func (s *ResolutionService) Resolve(ctx context.Context, input ResolveInput) (*Resolution, error) {
	ctx, span := telemetry.StartSpan(ctx, "ResolutionService.Resolve", telemetry.SpanAttributes{
		SessionID: input.SessionID,
		Operation: "resolve",
	})
	defer span.End()

	if err := validateResolveInput(input.QueryText, input.SessionID); err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, input.QueryText)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Resolution{Answer: existing.Response, Source: SourceKnowledgeBase, EntryID: existing.ID}, nil
	}

	return s.escalate(ctx, input.QueryText, input.SessionID, nil, nil)
}

// ResolveUpload answers a query that arrived with an optional media file,
// dispatching on the configured upload policy.
func (s *ResolutionService) ResolveUpload(ctx context.Context, input ResolveUploadInput) (*Resolution, error) {
	ctx, span := telemetry.StartSpan(ctx, "ResolutionService.ResolveUpload", telemetry.SpanAttributes{
		SessionID: input.SessionID,
		Operation: "resolve_upload",
	})
	defer span.End()

	if err := validateResolveInput(input.QueryText, input.SessionID); err != nil {
		return nil, err
	}

	if s.policy == config.UploadPolicyMediaAware {
		return s.resolveUploadMediaAware(ctx, input)
	}
	return s.resolveUploadTextFirst(ctx, input)
}

// resolveUploadTextFirst skips the knowledge-base lookup entirely: every
// upload query escalates to the provider with text only, and the media is
// recorded on both records but never sent.
func (s *ResolutionService) resolveUploadTextFirst(ctx context.Context, input ResolveUploadInput) (*Resolution, error) {
	var media *domain.MediaRef
	if input.Media != nil {
		media = domain.ClassifyMedia(input.Media.Path, input.Media.MIMEType)
	}

	return s.escalate(ctx, input.QueryText, input.SessionID, media, nil)
}

// resolveUploadMediaAware checks the knowledge base first. On a hit the
// uploaded media is discarded, never persisted. On a miss the media is
// mandatory: it is pushed to the media host and its hosted reference
// accompanies the prompt.
func (s *ResolutionService) resolveUploadMediaAware(ctx context.Context, input ResolveUploadInput) (*Resolution, error) {
	existing, err := s.lookup(ctx, input.QueryText)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Resolution{Answer: existing.Response, Source: SourceKnowledgeBase, EntryID: existing.ID}, nil
	}

	if input.Media == nil {
		return nil, domain.ErrNoMediaUploaded
	}

	media := domain.ClassifyMedia(input.Media.Path, input.Media.MIMEType)

	hostedURL, err := s.hostMedia(ctx, input.Media)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to host uploaded media", err)
	}

	var imageURL *string
	if media != nil && media.Kind == domain.MediaKindImage {
		imageURL = &hostedURL
	}

	return s.escalate(ctx, input.QueryText, input.SessionID, media, imageURL)
}

// escalate performs the miss path: audit record, provider call, knowledge
// base insert, back-link.
func (s *ResolutionService) escalate(ctx context.Context, queryText, sessionID string, media *domain.MediaRef, imageURL *string) (*Resolution, error) {
	now := time.Now().UTC()

	question := domain.NewUnansweredQuestion(s.uuidGen.NewString(), queryText, sessionID, media, now)
	if err := domain.ValidateUnansweredQuestion(question); err != nil {
		return nil, err
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to record unanswered question", err)
	}

	var answer string
	var err error
	if imageURL != nil {
		answer, err = s.provider.GenerateAnswerWithImage(ctx, queryText, *imageURL)
	} else {
		answer, err = s.provider.GenerateAnswer(ctx, queryText)
	}
	if err != nil {
		// The question row stays orphaned; there is no rollback or retry.
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "answer provider request failed", err)
	}

	entry := domain.NewKnowledgeBaseEntry(s.uuidGen.NewString(), queryText, answer, sessionID, media, now)
	if err := domain.ValidateKnowledgeBaseEntry(entry); err != nil {
		return nil, err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to persist knowledge base entry", err)
	}

	if err := s.questions.SetKnowledgeBaseRef(ctx, question.ID, entry.ID); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to link unanswered question", err)
	}

	return &Resolution{Answer: answer, Source: SourceAPI, EntryID: entry.ID}, nil
}

// lookup finds an existing entry for the case-folded query. Returns nil
// (not an error) on a miss.
func (s *ResolutionService) lookup(ctx context.Context, queryText string) (*domain.KnowledgeBaseEntry, error) {
	entry, err := s.entries.GetByNormalizedQuery(ctx, domain.NormalizeQuery(queryText))
	if err != nil {
		if errors.Is(err, domain.ErrEntryNotFound) {
			return nil, nil
		}
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "knowledge base lookup failed", err)
	}
	return entry, nil
}

// hostMedia uploads the stored file to the media host and returns a URL the
// provider can fetch.
func (s *ResolutionService) hostMedia(ctx context.Context, media *StoredMedia) (string, error) {
	if s.mediaHost == nil || s.uploads == nil {
		return "", errors.New("media host not configured")
	}

	f, err := s.uploads.Open(media.OriginalName)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := s.mediaHost.UploadObject(ctx, media.OriginalName, media.MIMEType, f); err != nil {
		return "", err
	}

	return s.mediaHost.GenerateDownloadURL(ctx, media.OriginalName)
}

func validateResolveInput(queryText, sessionID string) error {
	if queryText == "" {
		return domain.ErrMissingQuery
	}
	if sessionID == "" {
		return domain.ErrMissingSessionID
	}
	return nil
}
