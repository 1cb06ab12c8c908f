package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/svm-engineering/storefront/internal/logging"
)

// errorEnvelope writes the {"success": false, "error": ...} shape used by the
// order and product endpoints.
func errorEnvelope(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{
		"success": false,
		"error":   msg,
	})
}

// internalError logs the underlying failure server-side and returns a generic
// body; real error text never reaches the client.
func internalError(c echo.Context, op string, err error) error {
	logging.FromContext(c.Request().Context()).Error("internal error", "op", op, "error", err)
	return errorEnvelope(c, http.StatusInternalServerError, "internal error")
}
