package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
	"github.com/stemsi/exstem-practice/internal/validator"
)

type PreferenceHandler struct {
	preferenceService *service.PreferenceService
	log               zerolog.Logger
}

func NewPreferenceHandler(preferenceService *service.PreferenceService, log zerolog.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceService: preferenceService,
		log:               log.With().Str("component", "preference_handler").Logger(),
	}
}

// GetExamMode godoc
// GET /api/v1/preferences/exam-mode
func (h *PreferenceHandler) GetExamMode(c *gin.Context) {
	enabled := h.preferenceService.ExamMode(c.Request.Context(), middleware.GetClientID(c))
	response.Success(c, http.StatusOK, model.ExamModePreference{ExamMode: enabled})
}

// SetExamMode godoc
// PUT /api/v1/preferences/exam-mode
func (h *PreferenceHandler) SetExamMode(c *gin.Context) {
	var req model.ExamModeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.preferenceService.SetExamMode(c.Request.Context(), middleware.GetClientID(c), *req.Enabled); err != nil {
		failService(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, model.ExamModePreference{ExamMode: *req.Enabled})
}
