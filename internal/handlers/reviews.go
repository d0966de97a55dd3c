package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/events"
	"github.com/collegedash/college_dashboard/internal/models"
	"github.com/collegedash/college_dashboard/internal/service/token"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type ReviewRow struct {
	ReviewID    uint   `json:"reviewId"`
	UserID      uint   `json:"userId"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	CollegeName string `json:"collegeName"`
	Location    string `json:"location"`
}

func (h *ReviewHandler) GetAllReviews(c echo.Context) error {
	var rows []ReviewRow
	err := h.DB.WithContext(c.Request().Context()).
		Table("reviews").
		Select("reviews.id AS review_id, reviews.user_id, reviews.rating, reviews.comment, colleges.name AS college_name, colleges.location").
		Joins("INNER JOIN colleges ON colleges.id = reviews.college_id").
		Order("reviews.id ASC").
		Scan(&rows).Error
	if err != nil {
		return apperr.Wrap(apperr.Database, "could not fetch reviews", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Reviews fetched successfully",
		"data":    rows,
	})
}

func (h *ReviewHandler) GetUserReviews(c echo.Context) error {
	identity, err := token.CurrentUser(c)
	if err != nil {
		return err
	}

	var rows []ReviewRow
	err = h.DB.WithContext(c.Request().Context()).
		Table("reviews").
		Select("reviews.id AS review_id, reviews.user_id, reviews.rating, reviews.comment, colleges.name AS college_name, colleges.location").
		Joins("INNER JOIN colleges ON colleges.id = reviews.college_id").
		Where("reviews.user_id = ?", identity.UserID).
		Order("reviews.id ASC").
		Scan(&rows).Error
	if err != nil {
		return apperr.Wrap(apperr.Database, "could not fetch reviews", err)
	}
	if len(rows) == 0 {
		return apperr.New(apperr.NotFound, "No reviews found for this user")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User reviews fetched successfully",
		"data":    rows,
	})
}

func (h *ReviewHandler) PostReview(c echo.Context) error {
	identity, err := token.CurrentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		CollegeID uint   `json:"collegeId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.Validation, "invalid request body")
	}
	if req.CollegeID == 0 || req.Rating == 0 || req.Comment == "" {
		return apperr.New(apperr.Validation, "collegeId, rating and comment are required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return apperr.New(apperr.Validation, "rating must be between 1 and 5")
	}

	review := models.Review{
		CollegeID: req.CollegeID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		UserID:    identity.UserID,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&review).Error; err != nil {
		// The (collegeId, userId) unique index rejects a second review for
		// the same college.
		return apperr.Wrap(apperr.Database, "could not create review", err)
	}

	publishEvent(c, h.Producer, events.TopicReviewEvents, identity.UserID, map[string]any{
		"type":      "review_created",
		"reviewId":  review.ID,
		"collegeId": review.CollegeID,
		"userId":    review.UserID,
		"rating":    review.Rating,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Review created successfully",
		"data":    review,
	})
}
