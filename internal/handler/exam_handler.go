package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abiturprep/abitur-backend/internal/middleware"
	"github.com/abiturprep/abitur-backend/internal/model"
	"github.com/abiturprep/abitur-backend/internal/repository"
	"github.com/abiturprep/abitur-backend/internal/response"
	"github.com/abiturprep/abitur-backend/internal/service"
	"github.com/abiturprep/abitur-backend/internal/validator"
)

var hexCodePattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

// ExamHandler handles exam generation and job reads.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// Generate godoc
// POST /api/v1/exams
// Kicks off background generation and immediately returns the hexcode the
// client polls with. The LLM call never blocks this response.
func (h *ExamHandler) Generate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.GenerateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hexCode, err := h.examService.Generate(c.Request.Context(), claims.UserID, req.Subject, req.Difficulty)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownUser):
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		case errors.Is(err, service.ErrPromptNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrPromptMissing)
		case errors.Is(err, service.ErrHexCodeExhausted):
			response.Fail(c, http.StatusConflict, response.ErrHexCodeTaken)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	c.JSON(http.StatusOK, model.GenerateExamResponse{
		HexCode: hexCode,
		Message: "Ihre Prüfung wird im Hintergrund generiert",
	})
}

// GetExam godoc
// GET /api/v1/exams/:hexcode
// Returns the full job row for the owner; the client poller drives off
// the status field.
func (h *ExamHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	hexCode := c.Param("hexcode")
	if !hexCodePattern.MatchString(hexCode) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	job, err := h.examService.GetJob(c.Request.Context(), claims.UserID, hexCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListExams godoc
// GET /api/v1/exams
// Returns the caller's exam history, newest first.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	jobs, total, err := h.examService.ListJobs(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if jobs == nil {
		jobs = []model.ExamJob{}
	}

	c.JSON(http.StatusOK, gin.H{
		"exams":    jobs,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}
