package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality"
	"github.com/breatheroute/irceline/internal/airquality/irceline"
	"github.com/breatheroute/irceline/internal/api/response"
)

// writeError maps an index or client error onto a problem response.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var apiErr *irceline.APIError
	isAPIErr := errors.As(err, &apiErr)

	switch {
	case errors.Is(err, airquality.ErrInvalidParameter):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, airquality.ErrInvalidInput):
		response.IndexUnavailable(w, r, err.Error())
	case isAPIErr && apiErr.Timeout(), errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("upstream timeout")
		response.GatewayTimeout(w, r, "IRCEL - CELINE did not respond in time")
	case isAPIErr && apiErr.Kind == irceline.KindCircuitOpen:
		log.Warn().Err(err).Msg("upstream circuit open")
		response.ServiceUnavailable(w, r, "IRCEL - CELINE is temporarily unavailable")
	case errors.Is(err, airquality.ErrCommunication):
		log.Error().Err(err).Msg("upstream request failed")
		response.BadGateway(w, r, "IRCEL - CELINE request failed")
	default:
		log.Error().Err(err).Msg("request failed")
		response.InternalError(w, r, "An unexpected error occurred")
	}
}
