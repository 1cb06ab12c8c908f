package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/hash"
	"github.com/svm-engineering/storefront/internal/logging"
	"github.com/svm-engineering/storefront/internal/models"
	"github.com/svm-engineering/storefront/internal/mykafka"
	"github.com/svm-engineering/storefront/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return errorEnvelope(c, http.StatusBadRequest, "username, email and password are required")
	}

	var existing models.User
	err := h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		return errorEnvelope(c, http.StatusBadRequest, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, "register", err)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return internalError(c, "register", err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return internalError(c, "register", err)
	}

	h.publish(c, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorEnvelope(c, http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		return errorEnvelope(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorEnvelope(c, http.StatusUnauthorized, "invalid credentials")
	}

	pair, err := h.Tokens.IssuePair(user)
	if err != nil {
		return internalError(c, "login", err)
	}

	h.publish(c, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"is_admin":      user.Role == "admin",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return errorEnvelope(c, http.StatusBadRequest, "refresh_token is required")
	}

	pair, err := h.Tokens.Rotate(req.RefreshToken)
	if err != nil {
		return errorEnvelope(c, http.StatusUnauthorized, "invalid refresh token")
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return errorEnvelope(c, http.StatusBadRequest, "refresh_token is required")
	}

	if err := h.Tokens.Revoke(req.RefreshToken); err != nil {
		return internalError(c, "logout", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) publish(c echo.Context, topic, key string, event map[string]interface{}) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "topic", topic, "error", err)
	}
}
