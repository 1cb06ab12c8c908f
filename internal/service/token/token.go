package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/svm-engineering/storefront/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid refresh token")
	ErrRevoked      = errors.New("refresh token revoked")
	ErrExpired      = errors.New("refresh token expired")
)

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IssuePair signs an access/refresh token pair and stores the refresh token
// so it can be rotated or revoked later.
func (s *Service) IssuePair(user models.User) (Pair, error) {
	access, err := s.signAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return Pair{}, err
	}

	refreshExp := time.Now().Add(RefreshTTL)
	refresh, err := s.signRefresh(user.ID, user.Email, user.Role, refreshExp)
	if err != nil {
		return Pair{}, err
	}

	stored := models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.DB.Create(&stored).Error; err != nil {
		return Pair{}, fmt.Errorf("save refresh token: %w", err)
	}

	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate validates a refresh token, revokes it, and issues a fresh pair.
func (s *Service) Rotate(raw string) (Pair, error) {
	claims, err := s.validateRefresh(raw)
	if err != nil {
		return Pair{}, err
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return Pair{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	if err := s.Revoke(raw); err != nil {
		return Pair{}, err
	}

	return s.IssuePair(models.User{ID: uint(sub), Email: email, Role: role})
}

func (s *Service) Revoke(raw string) error {
	return s.DB.Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}

func (s *Service) signAccess(userID uint, email, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.JWTSecret)
}

func (s *Service) signRefresh(userID uint, email, role string, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"exp":   exp.Unix(),
		"typ":   "refresh",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.RefreshSecret)
}

func (s *Service) validateRefresh(raw string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return nil, ErrInvalidToken
	}

	var stored models.RefreshToken
	if err := s.DB.Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, ErrRevoked
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, ErrExpired
	}

	return claims, nil
}
