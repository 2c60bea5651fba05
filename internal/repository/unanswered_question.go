package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/askbase/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UnansweredQuestionRepository struct {
	db dbtx
}

func NewUnansweredQuestionRepository(pool *pgxpool.Pool) *UnansweredQuestionRepository {
	return &UnansweredQuestionRepository{db: pool}
}

func NewUnansweredQuestionRepositoryWithTx(tx pgx.Tx) *UnansweredQuestionRepository {
	return &UnansweredQuestionRepository{db: tx}
}

func (r *UnansweredQuestionRepository) Create(ctx context.Context, q *domain.UnansweredQuestion) error {
	var mediaPath, mediaKind *string
	if q.Media != nil {
		mediaPath = nullableString(q.Media.Path)
		mediaKind = nullableString(string(q.Media.Kind))
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO unanswered_questions (id, question_text, session_id, media_path, media_kind, created_at, knowledge_base_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.QuestionText, q.SessionID, mediaPath, mediaKind, q.CreatedAt, nullableString(q.KnowledgeBaseRef),
	)
	return err
}

func (r *UnansweredQuestionRepository) GetByID(ctx context.Context, id string) (*domain.UnansweredQuestion, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, question_text, session_id, media_path, media_kind, created_at, knowledge_base_ref
		 FROM unanswered_questions WHERE id = $1`,
		id,
	)
	return scanQuestionRow(row)
}

// List returns every pending question, unfiltered and unsorted.
func (r *UnansweredQuestionRepository) List(ctx context.Context) ([]*domain.UnansweredQuestion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question_text, session_id, media_path, media_kind, created_at, knowledge_base_ref
		 FROM unanswered_questions`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

func (r *UnansweredQuestionRepository) ListByKnowledgeBaseRef(ctx context.Context, ref string) ([]*domain.UnansweredQuestion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, question_text, session_id, media_path, media_kind, created_at, knowledge_base_ref
		 FROM unanswered_questions WHERE knowledge_base_ref = $1`,
		ref,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanQuestionRows(rows)
}

// SetKnowledgeBaseRef links a question to the entry that answered it.
func (r *UnansweredQuestionRepository) SetKnowledgeBaseRef(ctx context.Context, id, ref string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE unanswered_questions SET knowledge_base_ref = $1 WHERE id = $2`,
		ref, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrNoQuestions
	}
	return nil
}

// DeleteByKnowledgeBaseRef purges all questions linked to an entry and
// returns how many rows were removed.
func (r *UnansweredQuestionRepository) DeleteByKnowledgeBaseRef(ctx context.Context, ref string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM unanswered_questions WHERE knowledge_base_ref = $1`,
		ref,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

func scanQuestionRow(row pgx.Row) (*domain.UnansweredQuestion, error) {
	var q domain.UnansweredQuestion
	var mediaPath, mediaKind, ref *string
	err := row.Scan(&q.ID, &q.QuestionText, &q.SessionID, &mediaPath, &mediaKind, &q.CreatedAt, &ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoQuestions
		}
		return nil, err
	}
	q.Media = mediaRefFromColumns(mediaPath, mediaKind)
	if ref != nil {
		q.KnowledgeBaseRef = *ref
	}
	return &q, nil
}

func scanQuestionRows(rows pgx.Rows) ([]*domain.UnansweredQuestion, error) {
	var results []*domain.UnansweredQuestion
	for rows.Next() {
		var q domain.UnansweredQuestion
		var mediaPath, mediaKind, ref *string
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.SessionID, &mediaPath, &mediaKind, &q.CreatedAt, &ref); err != nil {
			return nil, err
		}
		q.Media = mediaRefFromColumns(mediaPath, mediaKind)
		if ref != nil {
			q.KnowledgeBaseRef = *ref
		}
		results = append(results, &q)
	}
	return results, rows.Err()
}
