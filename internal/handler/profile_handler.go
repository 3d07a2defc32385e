package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abiturprep/abitur-backend/internal/middleware"
	"github.com/abiturprep/abitur-backend/internal/model"
	"github.com/abiturprep/abitur-backend/internal/repository"
	"github.com/abiturprep/abitur-backend/internal/response"
	"github.com/abiturprep/abitur-backend/internal/service"
	"github.com/abiturprep/abitur-backend/internal/validator"
)

// ProfileHandler handles profile updates for the authenticated user.
type ProfileHandler struct {
	userService *service.UserService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

// UpdateProfile godoc
// PUT /api/v1/profile
// Empty fields keep their current value; Bundesland feeds the default
// used for new exams.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.UpdateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), claims.UserID, req.Name, req.Bundesland)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, user)
}
