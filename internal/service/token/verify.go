package token

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/models"
)

const identityKey = "identity"

// Identity is the resolved caller, attached to the echo context by Verify and
// read back by handlers through CurrentUser.
type Identity struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Verify is the access-token middleware for protected routes. Verification is
// stateless: signature and expiry only, then a user lookup so tokens for
// deleted accounts stop working immediately. An expired token gets a distinct
// message so the client knows to call the refresh endpoint instead of
// re-authenticating.
func (s *Service) Verify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := AccessCookie(c)
		if !ok {
			return apperr.New(apperr.Unauthorized, "Please login to continue")
		}

		claims, err := s.ParseAccess(raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return apperr.New(apperr.Unauthorized, "Session expired, please refresh")
			}
			return apperr.New(apperr.Unauthorized, "Invalid token")
		}

		var user models.User
		if err := s.DB.WithContext(c.Request().Context()).
			First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.New(apperr.Unauthorized, "User not found")
			}
			return apperr.Wrap(apperr.Database, "Database error", err)
		}

		c.Set(identityKey, Identity{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
		})
		return next(c)
	}
}

func CurrentUser(c echo.Context) (Identity, error) {
	id, ok := c.Get(identityKey).(Identity)
	if !ok {
		return Identity{}, apperr.New(apperr.Unauthorized, "Please login to continue")
	}
	return id, nil
}
