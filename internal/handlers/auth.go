package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/events"
	"github.com/collegedash/college_dashboard/internal/hash"
	"github.com/collegedash/college_dashboard/internal/logging"
	"github.com/collegedash/college_dashboard/internal/models"
	"github.com/collegedash/college_dashboard/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *events.Producer
}

// Register creates the user row only; it deliberately does not issue tokens,
// the client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperr.New(apperr.Validation, "username, email and password are required")
	}

	var existing models.User
	err := h.DB.WithContext(c.Request().Context()).
		Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return apperr.New(apperr.Database, "user already exists!!")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.Database, "Database error", err)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "could not hash password", err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&user).Error; err != nil {
		return apperr.Wrap(apperr.Database, "could not create user", err)
	}

	publishEvent(c, h.Producer, events.TopicUserEvents, user.ID, map[string]any{
		"type":     "user_registered",
		"userId":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "User registered successfully!!",
		"data":    user,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).
		Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "Incorrect email, user not found!!")
		}
		return apperr.Wrap(apperr.Database, "Database error", err)
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return apperr.New(apperr.Validation, "incorrect password!!")
	}

	pair, err := h.Tokens.Issue(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	h.Tokens.SetCookies(c, pair)

	publishEvent(c, h.Producer, events.TopicUserEvents, user.ID, map[string]any{
		"type":     "user_logged_in",
		"userId":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "user login successful!!",
		"data": echo.Map{
			"user":         user,
			"refreshToken": pair.RefreshToken,
		},
	})
}

// Logout never fails the client-visible operation: a revoke error only goes
// to the logs and the cookies are cleared regardless.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw, ok := token.RefreshCookie(c); ok {
		if err := h.Tokens.Revoke(c.Request().Context(), raw); err != nil {
			logging.FromContext(c.Request().Context()).Error("logout revoke failed", "error", err)
		}
	}
	h.Tokens.ClearCookies(c)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := token.CurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User retrieved successfully",
		"data":    identity,
	})
}

// Refresh performs the rotation exchange: old token revoked, new pair minted
// and re-cookied, current profile returned. Fails closed with 401 on anything
// unexpected.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := token.RefreshCookie(c)
	if !ok {
		return apperr.New(apperr.Unauthorized, "No refresh token found")
	}

	pair, claims, err := h.Tokens.Rotate(c.Request().Context(), raw)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.Unauthorized {
			return err
		}
		return apperr.Wrap(apperr.Unauthorized, "Token refresh failed", err)
	}
	h.Tokens.SetCookies(c, pair)

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).
		First(&user, claims.UserID).Error; err != nil {
		return apperr.Wrap(apperr.Unauthorized, "Token refresh failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Token refreshed successfully",
		"user": token.Identity{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}
