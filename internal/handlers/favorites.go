package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/events"
	"github.com/collegedash/college_dashboard/internal/models"
	"github.com/collegedash/college_dashboard/internal/service/token"
)

type FavoriteHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type FavoriteRow struct {
	CollegeID   uint   `json:"collegeId"`
	CollegeName string `json:"collegeName"`
	Location    string `json:"location"`
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
}

func (h *FavoriteHandler) fetchFavorites(c echo.Context, userID uint) ([]FavoriteRow, error) {
	var rows []FavoriteRow
	err := h.DB.WithContext(c.Request().Context()).
		Table("favorite_colleges").
		Select("colleges.id AS college_id, colleges.name AS college_name, colleges.location, favorite_colleges.user_id, users.username").
		Joins("INNER JOIN colleges ON colleges.id = favorite_colleges.college_id").
		Joins("LEFT JOIN users ON users.id = favorite_colleges.user_id").
		Where("favorite_colleges.user_id = ?", userID).
		Order("colleges.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, "could not fetch user favorites", err)
	}
	return rows, nil
}

func favoritesResponse(message string, rows []FavoriteRow) echo.Map {
	return echo.Map{
		"success":   true,
		"message":   message,
		"data":      rows,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *FavoriteHandler) GetFavorites(c echo.Context) error {
	identity, err := token.CurrentUser(c)
	if err != nil {
		return err
	}

	rows, err := h.fetchFavorites(c, identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoritesResponse("User favorites fetched successfully", rows))
}

// PostFavorite adds a college and returns the refreshed list, so the client
// store replaces its state in one round trip.
func (h *FavoriteHandler) PostFavorite(c echo.Context) error {
	identity, err := token.CurrentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		CollegeID uint `json:"collegeId"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if req.CollegeID == 0 {
		return apperr.New(apperr.Validation, "userId and collegeId are required")
	}

	favorite := models.FavoriteCollege{
		UserID:    identity.UserID,
		CollegeID: req.CollegeID,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&favorite).Error; err != nil {
		return apperr.Wrap(apperr.Database, "could not add favorite", err)
	}

	publishEvent(c, h.Producer, events.TopicFavoriteEvents, identity.UserID, map[string]any{
		"type":      "favorite_added",
		"userId":    identity.UserID,
		"collegeId": req.CollegeID,
	})

	rows, err := h.fetchFavorites(c, identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, favoritesResponse("Favorite added successfully", rows))
}

func (h *FavoriteHandler) DeleteFavorite(c echo.Context) error {
	identity, err := token.CurrentUser(c)
	if err != nil {
		return err
	}

	cid, err := strconv.Atoi(c.Param("cid"))
	if err != nil || cid <= 0 {
		return apperr.New(apperr.Validation, "Favorite ID is required")
	}

	if err := h.DB.WithContext(c.Request().Context()).
		Where("user_id = ? AND college_id = ?", identity.UserID, cid).
		Delete(&models.FavoriteCollege{}).Error; err != nil {
		return apperr.Wrap(apperr.Database, "could not remove favorite", err)
	}

	publishEvent(c, h.Producer, events.TopicFavoriteEvents, identity.UserID, map[string]any{
		"type":      "favorite_removed",
		"userId":    identity.UserID,
		"collegeId": cid,
	})

	rows, err := h.fetchFavorites(c, identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoritesResponse("Favorite removed successfully", rows))
}
