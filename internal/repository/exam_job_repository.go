package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abiturprep/abitur-backend/internal/model"
)

// ExamJobRepository handles exam job data access.
//
// Status transitions are guarded in SQL: terminal updates only apply while
// the row is still 'generating', so a job can never revert out of a
// terminal state regardless of caller behavior.
type ExamJobRepository struct {
	pool *pgxpool.Pool
}

// NewExamJobRepository creates a new ExamJobRepository.
func NewExamJobRepository(pool *pgxpool.Pool) *ExamJobRepository {
	return &ExamJobRepository{pool: pool}
}

const examJobColumns = `id, hexcode, user_id, subject, difficulty, bundesland,
	        status, content, error_message, created_at, updated_at`

// Create inserts a new exam job. Returns ErrHexCodeTaken when the hexcode
// collides with an existing row; callers regenerate and retry.
func (r *ExamJobRepository) Create(ctx context.Context, job *model.ExamJob) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (hexcode, user_id, subject, difficulty, bundesland, status, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		job.HexCode, job.UserID, job.Subject, job.Difficulty,
		job.Bundesland, job.Status, job.Content,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrHexCodeTaken
	}
	return err
}

// GetByHexCodeForUser retrieves a job by hexcode scoped to its owner.
// Rows belonging to other users are reported as ErrNotFound.
func (r *ExamJobRepository) GetByHexCodeForUser(ctx context.Context, hexCode string, userID uuid.UUID) (*model.ExamJob, error) {
	job := &model.ExamJob{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+examJobColumns+`
		 FROM exams WHERE hexcode = $1 AND user_id = $2`,
		hexCode, userID,
	).Scan(&job.ID, &job.HexCode, &job.UserID, &job.Subject, &job.Difficulty,
		&job.Bundesland, &job.Status, &job.Content, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return job, nil
}

// ListByUser returns a user's jobs, newest first, with the total count.
func (r *ExamJobRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.ExamJob, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exams WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examJobColumns+`
		 FROM exams WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []model.ExamJob
	for rows.Next() {
		var job model.ExamJob
		if err := rows.Scan(&job.ID, &job.HexCode, &job.UserID, &job.Subject,
			&job.Difficulty, &job.Bundesland, &job.Status, &job.Content,
			&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

// MarkCompleted moves a generating job to completed with its final content.
// Returns false when the row was absent or already terminal.
func (r *ExamJobRepository) MarkCompleted(ctx context.Context, hexCode, content string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET status = $1, content = $2, updated_at = NOW()
		 WHERE hexcode = $3 AND status = $4`,
		model.ExamJobStatusCompleted, content, hexCode, model.ExamJobStatusGenerating)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkError moves a generating job to error with a human-readable message
// and fallback display content. Returns false when the row was absent or
// already terminal.
func (r *ExamJobRepository) MarkError(ctx context.Context, hexCode, message, content string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET status = $1, error_message = $2, content = $3, updated_at = NOW()
		 WHERE hexcode = $4 AND status = $5`,
		model.ExamJobStatusError, message, content, hexCode, model.ExamJobStatusGenerating)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
