package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
)

// failService maps a service error onto the response envelope.
func failService(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrSetNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSetNotFound)
	case errors.Is(err, service.ErrInvalidKind):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrClientIDRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrClientIDRequired)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
