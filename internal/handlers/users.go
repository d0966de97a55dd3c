package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) GetAllUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.WithContext(c.Request().Context()).
		Order("id ASC").Find(&users).Error; err != nil {
		return apperr.Wrap(apperr.Database, "Failed to fetch users", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Users fetched successfully",
		"data":    users,
	})
}

func (h *UserHandler) deleteUser(c echo.Context, user *models.User) error {
	if err := h.DB.WithContext(c.Request().Context()).
		Delete(&models.User{}, user.ID).Error; err != nil {
		return apperr.Wrap(apperr.Database, "could not delete user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "user deleted successfully!!",
		"data":    user,
	})
}

func (h *UserHandler) DeleteUserByEmail(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).
		Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.Conflict, "user does not exists, unable to perform action")
		}
		return apperr.Wrap(apperr.Database, "Database error", err)
	}
	return h.deleteUser(c, &user)
}

func (h *UserHandler) DeleteUserByID(c echo.Context) error {
	uid, err := strconv.Atoi(c.Param("uid"))
	if err != nil {
		return apperr.New(apperr.Validation, "invalid user id")
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).
		First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.Conflict, "user does not exists, unable to perform action")
		}
		return apperr.Wrap(apperr.Database, "Database error", err)
	}
	return h.deleteUser(c, &user)
}
