package http

import (
	"errors"
	"net/http"

	"freightdispatch/internal/core/application/usecases/commands"
	"freightdispatch/internal/core/domain/model/chain"
	"freightdispatch/internal/generated/servers"
	"freightdispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// writeError maps use case errors to HTTP responses. The optional status is
// the chain status reported alongside a refused start.
func writeError(ctx echo.Context, err error, status ...string) error {
	code, message := classify(err)

	body := servers.Error{Code: code, Message: message}
	if errors.Is(err, commands.ErrNoCarrierAvailable) && len(status) > 0 && status[0] != "" {
		body.Status = &status[0]
	}
	if code == http.StatusInternalServerError {
		ctx.Logger().Errorf("request %s %s failed: %v", ctx.Request().Method, ctx.Request().URL.Path, err)
	}
	return ctx.JSON(code, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, chain.ErrInvalidTransition):
		return http.StatusConflict, "no longer actionable: " + err.Error()
	case errors.Is(err, commands.ErrNoCarrierAvailable):
		return http.StatusConflict, "no carrier available, the order was escalated"
	case errors.Is(err, commands.ErrChainAlreadyActive):
		return http.StatusConflict, err.Error()
	case errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusConflict, "chain was modified concurrently, retry the request"
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, servers.Error{Code: http.StatusBadRequest, Message: message})
}
