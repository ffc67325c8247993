package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/primecut/pricing-service/internal/audit"
	"github.com/primecut/pricing-service/internal/database"
	"github.com/primecut/pricing-service/internal/pricing"
	"github.com/primecut/pricing-service/internal/rules"
)

// writeError maps a domain error to its HTTP status.
func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	var ve *rules.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, rules.ErrUnknownMethod),
		errors.Is(err, pricing.ErrCustomerMismatch):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrDuplicateRuleName),
		errors.Is(err, database.ErrLastDefaultRule):
		return http.StatusConflict
	case pricing.IsConfigurationError(err),
		errors.Is(err, audit.ErrBrokenChain),
		errors.Is(err, audit.ErrEmptyChain):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
