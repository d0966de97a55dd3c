package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/service/search"
	"github.com/collegedash/college_dashboard/internal/util"
)

type CollegeHandler struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

// CollegeRow is one college/course pair from the inner join; a college with
// three courses shows up three times, matching the listing the client renders.
type CollegeRow struct {
	CollegeID   uint    `json:"collegeId"`
	CollegeName string  `json:"collegeName"`
	Location    string  `json:"location"`
	Course      string  `json:"course"`
	Fee         float64 `json:"fee"`
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *CollegeHandler) GetColleges(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var rows []CollegeRow
	err := h.DB.WithContext(c.Request().Context()).
		Table("colleges").
		Select("colleges.id AS college_id, colleges.name AS college_name, colleges.location, courses.name AS course, courses.fee").
		Joins("INNER JOIN courses ON courses.college_id = colleges.id").
		Order("colleges.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return apperr.Wrap(apperr.Database, "could not fetch colleges", err)
	}
	if len(rows) == 0 {
		return apperr.New(apperr.NotFound, "No colleges found")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Colleges fetched successfully",
		"data":    rows,
	})
}

func (h *CollegeHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return apperr.New(apperr.Validation, "query parameter q is required")
	}
	if h.ES == nil {
		return apperr.New(apperr.Internal, "search is not available")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, docs, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "search failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"total":   total,
		"data":    docs,
	})
}
