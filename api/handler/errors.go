package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitebrief/models"
)

// respondError writes err as a structured JSON error with the matching HTTP
// status.
func respondError(c *gin.Context, err error, timing *models.TimingInfo) {
	e := models.AsError(err)
	c.JSON(mapErrorToStatus(e), models.ErrorResponse{
		Success: false,
		Timing:  timing,
		Error:   e.ToDetail(),
	})
}

func invalidInput(err error) *models.Error {
	return models.NewError(models.KindPrecondition, models.ErrCodeInvalidInput, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.Error) int {
	switch e.Code {
	case models.ErrCodeInvalidInput, models.ErrCodeInvalidURL:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNoCredits:
		return http.StatusPaymentRequired // 402
	case models.ErrCodeJobNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeScrapeFailed, models.ErrCodeAnalysisFailed, models.ErrCodeGenerationFailed,
		models.ErrCodeScrapeService, models.ErrCodeLLMFailure, models.ErrCodeLLMAuthFailure,
		models.ErrCodeLLMRateLimited:
		return http.StatusBadGateway // 502
	case models.ErrCodeCreditCheckFailed:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
