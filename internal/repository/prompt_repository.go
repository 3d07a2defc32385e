package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/abiturprep/abitur-backend/internal/config"
	"github.com/abiturprep/abitur-backend/internal/model"
)

// promptCacheTTL bounds staleness after a template edit in the database.
const promptCacheTTL = 10 * time.Minute

// PromptRepository reads per-subject prompt templates, with a Redis
// read-through cache in front of PostgreSQL. Templates change rarely but
// are read on every submission.
type PromptRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewPromptRepository creates a new PromptRepository. rdb may be nil to
// disable caching.
func NewPromptRepository(pool *pgxpool.Pool, rdb *redis.Client) *PromptRepository {
	return &PromptRepository{pool: pool, rdb: rdb}
}

// GetBySubject returns the prompt template for a subject, or ErrNotFound.
func (r *PromptRepository) GetBySubject(ctx context.Context, subject string) (*model.PromptTemplate, error) {
	if tpl := r.fromCache(ctx, subject); tpl != nil {
		return tpl, nil
	}

	tpl := &model.PromptTemplate{}
	err := r.pool.QueryRow(ctx,
		`SELECT subject, system_prompt, user_prompt
		 FROM exam_prompts WHERE subject = $1`, subject,
	).Scan(&tpl.Subject, &tpl.SystemPrompt, &tpl.UserPrompt)
	if err != nil {
		return nil, mapNoRows(err)
	}

	r.toCache(ctx, tpl)
	return tpl, nil
}

// Upsert creates or replaces a subject's template and drops its cache entry.
func (r *PromptRepository) Upsert(ctx context.Context, tpl *model.PromptTemplate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_prompts (subject, system_prompt, user_prompt)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (subject) DO UPDATE
		 SET system_prompt = EXCLUDED.system_prompt,
		     user_prompt = EXCLUDED.user_prompt`,
		tpl.Subject, tpl.SystemPrompt, tpl.UserPrompt)
	if err != nil {
		return err
	}
	if r.rdb != nil {
		r.rdb.Del(ctx, config.CacheKey.PromptKey(tpl.Subject))
	}
	return nil
}

func (r *PromptRepository) fromCache(ctx context.Context, subject string) *model.PromptTemplate {
	if r.rdb == nil {
		return nil
	}
	raw, err := r.rdb.Get(ctx, config.CacheKey.PromptKey(subject)).Result()
	if err != nil {
		return nil
	}
	tpl := &model.PromptTemplate{}
	if err := json.Unmarshal([]byte(raw), tpl); err != nil {
		return nil
	}
	return tpl
}

func (r *PromptRepository) toCache(ctx context.Context, tpl *model.PromptTemplate) {
	if r.rdb == nil {
		return
	}
	raw, err := json.Marshal(tpl)
	if err != nil {
		return
	}
	r.rdb.Set(ctx, config.CacheKey.PromptKey(tpl.Subject), raw, promptCacheTTL)
}
