package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamJobStatus enumerates the lifecycle states of an exam generation job.
// Transitions are monotonic: generating → completed or generating → error.
type ExamJobStatus string

const (
	ExamJobStatusGenerating ExamJobStatus = "generating"
	ExamJobStatusCompleted  ExamJobStatus = "completed"
	ExamJobStatusError      ExamJobStatus = "error"
)

// Terminal reports whether no further status transition can occur.
func (s ExamJobStatus) Terminal() bool {
	return s == ExamJobStatusCompleted || s == ExamJobStatusError
}

// ExamJob is the persisted record tracking one exam-generation request
// from submission to terminal outcome. The hexcode is the public handle.
type ExamJob struct {
	ID           uuid.UUID     `json:"id"`
	HexCode      string        `json:"hexcode"`
	UserID       uuid.UUID     `json:"user_id"`
	Subject      string        `json:"subject"`
	Difficulty   string        `json:"difficulty"`
	Bundesland   string        `json:"bundesland"`
	Status       ExamJobStatus `json:"status"`
	Content      string        `json:"content"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Subjects and difficulty levels offered by the product. The request
// validator enforces these via oneof; defaults match the web form.
const (
	DefaultSubject    = "Mathematik"
	DefaultDifficulty = "Grundkurs"
)

// GenerateExamRequest is the payload for requesting a new practice exam.
// Empty fields fall back to the defaults above.
type GenerateExamRequest struct {
	Subject    string `json:"subject" binding:"omitempty,oneof=Mathematik Deutsch Englisch"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=Grundkurs Leistungskurs"`
}

// GenerateExamResponse is the synchronous reply to a submission. The
// actual exam arrives later via polling with the hexcode.
type GenerateExamResponse struct {
	HexCode string `json:"hexCode"`
	Message string `json:"message"`
}

// GenerationJob is the queue payload handed to the generation worker.
// Prompts are fully substituted before enqueueing.
type GenerationJob struct {
	HexCode      string `json:"hexcode"`
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

// PlaceholderContent is shown while a job is still generating.
const PlaceholderContent = `<div style="text-align: center; padding: 2rem;"><h2>Ihre Prüfung wird generiert...</h2><p>Dieser Vorgang kann einige Minuten dauern. Bitte aktualisieren Sie die Seite nach ca. 2-3 Minuten.</p></div>`
