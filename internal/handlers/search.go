package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/svm-engineering/storefront/internal/service/search"
	"github.com/svm-engineering/storefront/internal/util"
)

type SearchHandler struct {
	Svc *search.Service
}

func (h *SearchHandler) Handler(c echo.Context) error {
	if !h.Svc.Enabled() {
		return errorEnvelope(c, http.StatusServiceUnavailable, "search unavailable")
	}

	q := c.QueryParam("q")
	if q == "" {
		return errorEnvelope(c, http.StatusBadRequest, "q is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, products, err := h.Svc.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return internalError(c, "product.search", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"total":    total,
		"products": products,
	})
}
