// Package token owns the access/refresh token lifecycle: minting the pair,
// delivering it as cookies, verifying access tokens on protected routes, and
// rotating refresh tokens one-time-use.
package token

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type Claims struct {
	UserID   uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"name"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	DB            *gorm.DB
	AccessSecret  []byte
	RefreshSecret []byte
	Production    bool
}

func (s *Service) sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Issue looks up the user, signs an access/refresh pair with the two secrets
// and persists the refresh side. A missing user performs no insert.
func (s *Service) Issue(ctx context.Context, userID uint) (*Pair, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Database, "User not found")
		}
		return nil, apperr.Wrap(apperr.Database, "Database error", err)
	}

	claims := Claims{UserID: user.ID, Email: user.Email, Username: user.Username}

	access, err := s.sign(claims, s.AccessSecret, AccessTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not sign access token", err)
	}
	refresh, err := s.sign(claims, s.RefreshSecret, RefreshTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "could not sign refresh token", err)
	}

	record := models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(RefreshTTL),
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, apperr.Wrap(apperr.Database, "could not store refresh token", err)
	}

	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) parse(raw string, secret []byte) (*Claims, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return &claims, nil
}

func (s *Service) ParseAccess(raw string) (*Claims, error) {
	return s.parse(raw, s.AccessSecret)
}

func (s *Service) ParseRefresh(raw string) (*Claims, error) {
	return s.parse(raw, s.RefreshSecret)
}

// Rotate exchanges a structurally valid refresh token for a fresh pair. The
// conditional revoke and the insert of the replacement run in one transaction,
// so two concurrent calls presenting the same token cannot both succeed.
func (s *Service) Rotate(ctx context.Context, raw string) (*Pair, *Claims, error) {
	claims, err := s.ParseRefresh(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, apperr.New(apperr.Unauthorized, "Please login again")
		}
		return nil, nil, apperr.New(apperr.Unauthorized, "Invalid or expired refresh token")
	}

	var pair *Pair
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token = ? AND user_id = ?", raw, claims.UserID).
			First(&stored).Error; err != nil {
			return apperr.New(apperr.Unauthorized, "Invalid or expired refresh token")
		}
		if time.Now().After(stored.ExpiresAt) {
			return apperr.New(apperr.Unauthorized, "Invalid or expired refresh token")
		}

		// The revoked=false guard makes the revoke a compare-and-set: the
		// second of two racing rotations affects zero rows and fails here.
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", stored.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return apperr.Wrap(apperr.Database, "Token refresh failed", res.Error)
		}
		if res.RowsAffected != 1 {
			return apperr.New(apperr.Unauthorized, "Invalid or expired refresh token")
		}

		svc := Service{DB: tx, AccessSecret: s.AccessSecret, RefreshSecret: s.RefreshSecret, Production: s.Production}
		p, err := svc.Issue(ctx, claims.UserID)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, nil, appErr
		}
		return nil, nil, apperr.Wrap(apperr.Unauthorized, "Token refresh failed", err)
	}

	return pair, claims, nil
}

// Revoke marks the stored record unusable. Revoking an unknown or
// already-revoked token is not an error.
func (s *Service) Revoke(ctx context.Context, raw string) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}

func (s *Service) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.Production {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: sameSite,
	}
}

func (s *Service) SetCookies(c echo.Context, pair *Pair) {
	c.SetCookie(s.cookie(accessCookie, pair.AccessToken, AccessTTL))
	c.SetCookie(s.cookie(refreshCookie, pair.RefreshToken, RefreshTTL))
}

// ClearCookies uses the same attribute set as SetCookies; browsers only drop
// a cookie when the attributes match.
func (s *Service) ClearCookies(c echo.Context) {
	c.SetCookie(s.cookie(accessCookie, "", -time.Second))
	c.SetCookie(s.cookie(refreshCookie, "", -time.Second))
}

func AccessCookie(c echo.Context) (string, bool) {
	ck, err := c.Cookie(accessCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func RefreshCookie(c echo.Context) (string, bool) {
	ck, err := c.Cookie(refreshCookie)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
