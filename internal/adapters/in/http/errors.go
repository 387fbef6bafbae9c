package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/core/domain/services"
	"github.com/bharathakku/delivery-backend/internal/pkg/auth"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StatusCode maps the domain error taxonomy onto HTTP.
func StatusCode(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrRoleForbidden):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, services.ErrNoEligibleDriver):
		return http.StatusConflict
	case errs.IsValidation(err), errors.Is(err, errs.ErrVersionIsInvalid):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler writes every error as ErrorResponse. Internal errors are logged
// and reported without details.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusCode(err)
	message := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if m, ok := httpErr.Message.(string); ok {
			message = m
		}
	}
	if code >= http.StatusInternalServerError && httpErr == nil {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		message = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, ErrorResponse{Code: code, Message: message})
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
