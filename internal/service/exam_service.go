package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/abiturprep/abitur-backend/internal/config"
	"github.com/abiturprep/abitur-backend/internal/hexcode"
	"github.com/abiturprep/abitur-backend/internal/model"
	"github.com/abiturprep/abitur-backend/internal/repository"
)

// Submission errors, mapped to HTTP statuses by the handler.
var (
	ErrUnknownUser      = errors.New("unknown user")
	ErrPromptNotFound   = errors.New("no prompt template for subject")
	ErrHexCodeExhausted = errors.New("could not allocate a unique hexcode")
)

// ExamJobStore is the persistence surface the submission pipeline needs.
type ExamJobStore interface {
	Create(ctx context.Context, job *model.ExamJob) error
	GetByHexCodeForUser(ctx context.Context, hexCode string, userID uuid.UUID) (*model.ExamJob, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.ExamJob, int, error)
	MarkError(ctx context.Context, hexCode, message, content string) (bool, error)
}

// PromptStore resolves per-subject prompt templates.
type PromptStore interface {
	GetBySubject(ctx context.Context, subject string) (*model.PromptTemplate, error)
}

// UserStore reads the requesting user's profile.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Queue hands a prepared generation job to the background worker. Enqueue
// must return quickly; the worker's latency never reaches the caller.
type Queue interface {
	Enqueue(ctx context.Context, job model.GenerationJob) error
}

// ExamService owns the exam submission pipeline and job reads.
type ExamService struct {
	jobs    ExamJobStore
	prompts PromptStore
	users   UserStore
	queue   Queue
	gen     *hexcode.Generator
	cfg     *config.Config
	log     zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	jobs ExamJobStore,
	prompts PromptStore,
	users UserStore,
	queue Queue,
	gen *hexcode.Generator,
	cfg *config.Config,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		jobs:    jobs,
		prompts: prompts,
		users:   users,
		queue:   queue,
		gen:     gen,
		cfg:     cfg,
		log:     log.With().Str("component", "exam_service").Logger(),
	}
}

// Generate runs the synchronous half of exam generation: create the job
// row in generating state, resolve and substitute the prompt template and
// enqueue the background job. It returns the hexcode immediately; the LLM
// call happens in the worker.
func (s *ExamService) Generate(ctx context.Context, userID uuid.UUID, subject, difficulty string) (string, error) {
	if subject == "" {
		subject = model.DefaultSubject
	}
	if difficulty == "" {
		difficulty = model.DefaultDifficulty
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnknownUser
		}
		return "", fmt.Errorf("load user: %w", err)
	}

	bundesland := user.Bundesland
	if bundesland == "" {
		bundesland = s.cfg.DefaultBundesland
	}

	job, err := s.createJob(ctx, userID, subject, difficulty, bundesland)
	if err != nil {
		return "", err
	}

	// The job row exists from here on. Any failure below must still leave
	// it in a terminal state so the poller is never stranded.
	tpl, err := s.prompts.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.failJob(ctx, job.HexCode, "Für das Fach "+subject+" ist keine Prompt-Vorlage hinterlegt.")
			return "", ErrPromptNotFound
		}
		s.failJob(ctx, job.HexCode, "Die Prompt-Vorlage konnte nicht geladen werden.")
		return "", fmt.Errorf("load prompt template: %w", err)
	}

	genJob := model.GenerationJob{
		HexCode:      job.HexCode,
		SystemPrompt: tpl.SystemPrompt,
		UserPrompt:   tpl.Render(bundesland, job.HexCode, difficulty),
	}

	if err := s.queue.Enqueue(ctx, genJob); err != nil {
		s.failJob(ctx, job.HexCode, "Der Generierungsauftrag konnte nicht eingeplant werden.")
		return "", fmt.Errorf("enqueue generation job: %w", err)
	}

	s.log.Info().
		Str("hexcode", job.HexCode).
		Str("subject", subject).
		Str("difficulty", difficulty).
		Str("bundesland", bundesland).
		Msg("Exam generation scheduled")

	return job.HexCode, nil
}

// createJob allocates a hexcode and inserts the generating row, retrying a
// bounded number of times on hexcode collision.
func (s *ExamService) createJob(ctx context.Context, userID uuid.UUID, subject, difficulty, bundesland string) (*model.ExamJob, error) {
	for attempt := 0; attempt < s.cfg.HexCodeMaxRetries; attempt++ {
		code, err := s.gen.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate hexcode: %w", err)
		}

		job := &model.ExamJob{
			HexCode:    code,
			UserID:     userID,
			Subject:    subject,
			Difficulty: difficulty,
			Bundesland: bundesland,
			Status:     model.ExamJobStatusGenerating,
			Content:    model.PlaceholderContent,
		}

		err = s.jobs.Create(ctx, job)
		if errors.Is(err, repository.ErrHexCodeTaken) {
			s.log.Warn().Str("hexcode", code).Int("attempt", attempt+1).Msg("Hexcode collision, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert exam job: %w", err)
		}
		return job, nil
	}
	return nil, ErrHexCodeExhausted
}

// failJob terminates a job that can no longer be generated. Best effort:
// if the write fails the job stays generating, which is logged.
func (s *ExamService) failJob(ctx context.Context, hexCode, message string) {
	content := fmt.Sprintf(
		`<div style="color: red; padding: 2rem;"><h2>Fehler bei der Prüfungsgenerierung</h2><p>%s</p><p>Bitte versuchen Sie es später erneut oder kontaktieren Sie den Support.</p></div>`,
		message)
	if _, err := s.jobs.MarkError(ctx, hexCode, message, content); err != nil {
		s.log.Error().Err(err).Str("hexcode", hexCode).Msg("Failed to mark job as error")
	}
}

// GetJob returns a user's job by hexcode, or repository.ErrNotFound.
func (s *ExamService) GetJob(ctx context.Context, userID uuid.UUID, hexCode string) (*model.ExamJob, error) {
	return s.jobs.GetByHexCodeForUser(ctx, hexCode, userID)
}

// ListJobs returns a page of the user's jobs, newest first.
func (s *ExamService) ListJobs(ctx context.Context, userID uuid.UUID, page, perPage int) ([]model.ExamJob, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	return s.jobs.ListByUser(ctx, userID, perPage, (page-1)*perPage)
}
