package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type KnowledgeBaseRepository struct {
	db dbtx
}

func NewKnowledgeBaseRepository(pool *pgxpool.Pool) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{db: pool}
}

func NewKnowledgeBaseRepositoryWithTx(tx pgx.Tx) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{db: tx}
}

func (r *KnowledgeBaseRepository) Create(ctx context.Context, e *domain.KnowledgeBaseEntry) error {
	var mediaPath, mediaKind *string
	if e.Media != nil {
		mediaPath = nullableString(e.Media.Path)
		mediaKind = nullableString(string(e.Media.Kind))
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_base_entries (id, normalized_query, response, media_path, media_kind, session_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.NormalizedQuery, e.Response, mediaPath, mediaKind, e.SessionID, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *KnowledgeBaseRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeBaseEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, normalized_query, response, media_path, media_kind, session_id, created_at, updated_at
		 FROM knowledge_base_entries WHERE id = $1`,
		id,
	)
	return scanEntryRow(row)
}

// GetByNormalizedQuery returns the oldest entry whose normalized_query matches.
// The key is not enforced unique by the store; first match wins.
func (r *KnowledgeBaseRepository) GetByNormalizedQuery(ctx context.Context, normalizedQuery string) (*domain.KnowledgeBaseEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, normalized_query, response, media_path, media_kind, session_id, created_at, updated_at
		 FROM knowledge_base_entries WHERE normalized_query = $1 ORDER BY created_at LIMIT 1`,
		normalizedQuery,
	)
	return scanEntryRow(row)
}

// ListBySession returns all entries for a session in store-native order.
func (r *KnowledgeBaseRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.KnowledgeBaseEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, normalized_query, response, media_path, media_kind, session_id, created_at, updated_at
		 FROM knowledge_base_entries WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntryRows(rows)
}

// UpdateResponse replaces the response text of an entry and returns the
// updated row.
func (r *KnowledgeBaseRepository) UpdateResponse(ctx context.Context, id, response string) (*domain.KnowledgeBaseEntry, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE knowledge_base_entries SET response = $1, updated_at = $2 WHERE id = $3
		 RETURNING id, normalized_query, response, media_path, media_kind, session_id, created_at, updated_at`,
		response, time.Now().UTC(), id,
	)
	return scanEntryRow(row)
}

func scanEntryRow(row pgx.Row) (*domain.KnowledgeBaseEntry, error) {
	var e domain.KnowledgeBaseEntry
	var mediaPath, mediaKind *string
	err := row.Scan(&e.ID, &e.NormalizedQuery, &e.Response, &mediaPath, &mediaKind, &e.SessionID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	e.Media = mediaRefFromColumns(mediaPath, mediaKind)
	return &e, nil
}

func scanEntryRows(rows pgx.Rows) ([]*domain.KnowledgeBaseEntry, error) {
	var results []*domain.KnowledgeBaseEntry
	for rows.Next() {
		var e domain.KnowledgeBaseEntry
		var mediaPath, mediaKind *string
		if err := rows.Scan(&e.ID, &e.NormalizedQuery, &e.Response, &mediaPath, &mediaKind, &e.SessionID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Media = mediaRefFromColumns(mediaPath, mediaKind)
		results = append(results, &e)
	}
	return results, rows.Err()
}

func mediaRefFromColumns(path, kind *string) *domain.MediaRef {
	if path == nil {
		return nil
	}
	ref := &domain.MediaRef{Path: *path}
	if kind != nil {
		ref.Kind = domain.MediaKind(*kind)
	}
	return ref
}
