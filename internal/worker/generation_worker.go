package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/abiturprep/abitur-backend/internal/config"
	"github.com/abiturprep/abitur-backend/internal/model"
)

// terminalWriteTimeout bounds the final status write once generation is
// decided, independent of the worker loop's lifetime.
const terminalWriteTimeout = 10 * time.Second

// JobStore is the persistence surface the worker needs. Both writes are
// guarded against already-terminal rows and report whether they applied.
type JobStore interface {
	MarkCompleted(ctx context.Context, hexCode, content string) (bool, error)
	MarkError(ctx context.Context, hexCode, message, content string) (bool, error)
}

// Completer produces the exam text from prompts.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationWorker consumes the generation queue and finalizes exam jobs.
// Every job it dequeues ends in exactly one terminal write: completed with
// sanitized content, or error with a human-readable message. A failure of
// the compensating error write itself is logged and accepted.
type GenerationWorker struct {
	rdb      *redis.Client
	jobs     JobStore
	llm      Completer
	policy   *bluemonday.Policy
	timeout  time.Duration
	queueKey string
	log      zerolog.Logger
}

// NewGenerationWorker creates a new GenerationWorker.
func NewGenerationWorker(rdb *redis.Client, jobs JobStore, llm Completer, cfg *config.Config, log zerolog.Logger) *GenerationWorker {
	return &GenerationWorker{
		rdb:      rdb,
		jobs:     jobs,
		llm:      llm,
		policy:   bluemonday.UGCPolicy(),
		timeout:  cfg.LLMTimeout,
		queueKey: config.WorkerKey.GenerateExamsQueue,
		log:      log.With().Str("component", "generation_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine; cancel ctx to stop.
func (w *GenerationWorker) Start(ctx context.Context) {
	w.log.Info().Dur("llm_timeout", w.timeout).Msg("GenerationWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("GenerationWorker stopping")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *GenerationWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, w.queueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job model.GenerationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	w.process(ctx, &job)
}

// process runs one generation job to its terminal state. The LLM call is
// bounded by the configured timeout; the terminal write is not, so a slow
// completion never strands the row.
func (w *GenerationWorker) process(ctx context.Context, job *model.GenerationJob) {
	log := w.log.With().Str("hexcode", job.HexCode).Logger()
	log.Info().Msg("Generating exam content")

	llmCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	started := time.Now()
	content, err := w.llm.Complete(llmCtx, job.SystemPrompt, job.UserPrompt)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("Generation failed")
		w.fail(ctx, job.HexCode, err)
		return
	}

	// LLM markup is rendered as rich HTML by clients; strip anything the
	// model should not be able to inject before it is ever stored.
	clean := w.policy.Sanitize(content)

	// Terminal writes run on a detached context so shutdown does not
	// strand a finished job in generating state.
	writeCtx, writeCancel := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer writeCancel()

	applied, err := w.jobs.MarkCompleted(writeCtx, job.HexCode, clean)
	if err != nil {
		log.Error().Err(err).Msg("Completion write failed")
		w.fail(ctx, job.HexCode, err)
		return
	}
	if !applied {
		log.Warn().Msg("Job already terminal, completion discarded")
		return
	}

	log.Info().Dur("elapsed", time.Since(started)).Int("content_bytes", len(clean)).Msg("Exam generation completed")
	w.publish(writeCtx, job.HexCode, model.ExamJobStatusCompleted)
}

// fail performs the single compensating error write on a detached context.
func (w *GenerationWorker) fail(_ context.Context, hexCode string, cause error) {
	writeCtx, writeCancel := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer writeCancel()

	msg := humanizeError(cause, w.timeout)
	content := fmt.Sprintf(
		`<div style="color: red; padding: 2rem;"><h2>Fehler bei der Prüfungsgenerierung</h2><p>%s</p><p>Bitte versuchen Sie es später erneut oder kontaktieren Sie den Support.</p></div>`,
		msg)

	applied, err := w.jobs.MarkError(writeCtx, hexCode, msg, content)
	if err != nil {
		// Accepted limitation: the job stays generating if even this fails.
		w.log.Error().Err(err).Str("hexcode", hexCode).Msg("Compensating error write failed")
		return
	}
	if !applied {
		w.log.Warn().Str("hexcode", hexCode).Msg("Job already terminal, error write discarded")
		return
	}
	w.publish(writeCtx, hexCode, model.ExamJobStatusError)
}

// publish notifies push subscribers of the terminal transition. Polling
// does not depend on this; failures only cost push latency.
func (w *GenerationWorker) publish(ctx context.Context, hexCode string, status model.ExamJobStatus) {
	if w.rdb == nil {
		return
	}
	raw, err := json.Marshal(map[string]string{"hexcode": hexCode, "status": string(status)})
	if err != nil {
		return
	}
	if err := w.rdb.Publish(ctx, config.CacheKey.ExamEventsChannel(hexCode), raw).Err(); err != nil {
		w.log.Warn().Err(err).Str("hexcode", hexCode).Msg("Event publish failed")
	}
}

func humanizeError(cause error, timeout time.Duration) string {
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Sprintf("Zeitüberschreitung bei der Anfrage nach %d Minuten.", int(timeout.Minutes()))
	}
	if cause != nil {
		return "Die Prüfung konnte nicht erstellt werden: " + cause.Error()
	}
	return "Ein unbekannter Fehler ist aufgetreten."
}
