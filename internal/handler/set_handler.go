package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
	"github.com/stemsi/exstem-practice/internal/validator"
)

// SetHandler serves question set metadata and read-only browse pages.
type SetHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewSetHandler creates a new SetHandler.
func NewSetHandler(questionService *service.QuestionService, log zerolog.Logger) *SetHandler {
	return &SetHandler{
		questionService: questionService,
		log:             log.With().Str("component", "set_handler").Logger(),
	}
}

// GetSummary godoc
// GET /api/v1/sets/:kind/:slug
func (h *SetHandler) GetSummary(c *gin.Context) {
	var ref model.SetRef
	if fields := validator.BindURI(c, &ref); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	summary, err := h.questionService.Summary(c.Request.Context(), model.SetKind(ref.Kind), ref.Slug)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"set":              summary,
		"duration_seconds": int(h.questionService.Duration(summary.QuestionSet).Seconds()),
	})
}

// GetPage godoc
// GET /api/v1/sets/:kind/:slug/questions?page=&page_size=
// Returns one page with correct answers, for the untimed browse view.
func (h *SetHandler) GetPage(c *gin.Context) {
	var ref model.SetRef
	if fields := validator.BindURI(c, &ref); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	var q model.PageQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.questionService.Page(c.Request.Context(), model.SetKind(ref.Kind), ref.Slug, q.Page, q.PageSize)
	if err != nil {
		failService(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"set": page.Set, "questions": page.Questions},
		response.NewPagination(page.Page, page.PageSize, page.TotalItems, page.TotalPages),
	)
}
