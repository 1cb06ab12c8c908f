package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/logging"
	authmw "github.com/svm-engineering/storefront/internal/middleware/auth"
	"github.com/svm-engineering/storefront/internal/models"
	"github.com/svm-engineering/storefront/internal/mykafka"
	"github.com/svm-engineering/storefront/internal/service/search"
)

// sortKeys is the allow-list for caller-supplied sort. Anything else falls
// back to newest-first.
var sortKeys = map[string]string{
	"name":       "name ASC",
	"-name":      "name DESC",
	"price":      "price ASC",
	"-price":     "price DESC",
	"stock":      "stock ASC",
	"-stock":     "stock DESC",
	"createdAt":  "created_at ASC",
	"-createdAt": "created_at DESC",
}

const defaultProductSort = "created_at DESC"

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Search   *search.Service
}

type productPayload struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          float64           `json:"price"`
	Category       string            `json:"category"`
	Stock          int               `json:"stock"`
	Image          string            `json:"image"`
	Specifications map[string]string `json:"specifications"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	userID, ok := authmw.UserID(c)
	if !ok {
		return errorEnvelope(c, http.StatusUnauthorized, "authentication required")
	}

	var req productPayload
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid body")
	}

	switch {
	case req.Name == "":
		return errorEnvelope(c, http.StatusBadRequest, "name is required")
	case req.Description == "":
		return errorEnvelope(c, http.StatusBadRequest, "description is required")
	case req.Price < 0:
		return errorEnvelope(c, http.StatusBadRequest, "price must be >= 0")
	case req.Stock < 0:
		return errorEnvelope(c, http.StatusBadRequest, "stock must be >= 0")
	case !models.ValidProductCategory(req.Category):
		return errorEnvelope(c, http.StatusBadRequest, "invalid category")
	}

	product := models.Product{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Stock:          req.Stock,
		Image:          req.Image,
		Specifications: req.Specifications,
		IsActive:       true,
		CreatedBy:      userID,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return internalError(c, "product.create", err)
	}

	h.index(c, product)
	h.publish(c, map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"product": product,
	})
}

// GetProducts lists the catalog. search matches name/description, category
// filters exactly, both compose with AND.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	q := h.DB.Model(&models.Product{})

	if term := c.QueryParam("search"); term != "" {
		like := "%" + term + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	order := defaultProductSort
	if key, ok := sortKeys[c.QueryParam("sort")]; ok {
		order = key
	}

	var products []models.Product
	if err := q.Order(order).Find(&products).Error; err != nil {
		return internalError(c, "product.list", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"products": products,
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorEnvelope(c, http.StatusNotFound, "Product not found")
		}
		return internalError(c, "product.get", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"product": product,
	})
}

// UpdateProduct applies only the fields present in the request body.
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid product id")
	}

	var req struct {
		Name           *string            `json:"name"`
		Description    *string            `json:"description"`
		Price          *float64           `json:"price"`
		Category       *string            `json:"category"`
		Stock          *int               `json:"stock"`
		Image          *string            `json:"image"`
		Specifications *map[string]string `json:"specifications"`
		IsActive       *bool              `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid body")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorEnvelope(c, http.StatusNotFound, "Product not found")
		}
		return internalError(c, "product.update", err)
	}

	if req.Price != nil && *req.Price < 0 {
		return errorEnvelope(c, http.StatusBadRequest, "price must be >= 0")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return errorEnvelope(c, http.StatusBadRequest, "stock must be >= 0")
	}
	if req.Category != nil && !models.ValidProductCategory(*req.Category) {
		return errorEnvelope(c, http.StatusBadRequest, "invalid category")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Specifications != nil {
		product.Specifications = *req.Specifications
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&product).Error; err != nil {
		return internalError(c, "product.update", err)
	}

	h.index(c, product)
	h.publish(c, map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"product": product,
	})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorEnvelope(c, http.StatusNotFound, "Product not found")
		}
		return internalError(c, "product.delete", err)
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return internalError(c, "product.delete", err)
	}

	if h.Search.Enabled() {
		if err := h.Search.DeleteProduct(c.Request().Context(), product.ID); err != nil {
			logging.FromContext(c.Request().Context()).Warn("search deindex failed", "productID", product.ID, "error", err)
		}
	}
	h.publish(c, map[string]interface{}{
		"type":      "product_deleted",
		"productID": product.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

func (h *ProductHandler) index(c echo.Context, product models.Product) {
	if !h.Search.Enabled() {
		return
	}
	ctx := c.Request().Context()
	if err := h.Search.IndexProduct(ctx, product); err != nil {
		logging.FromContext(ctx).Warn("search index failed", "productID", product.ID, "error", err)
	}
}

func (h *ProductHandler) publish(c echo.Context, event map[string]interface{}) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "topic", "product_events", "error", err)
	}
}
