package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/handlers"
	"github.com/collegedash/college_dashboard/internal/service/token"
)

type Deps struct {
	DB              *gorm.DB
	Tokens          *token.Service
	AuthHandler     *handlers.AuthHandler
	CollegeHandler  *handlers.CollegeHandler
	ReviewHandler   *handlers.ReviewHandler
	FavoriteHandler *handlers.FavoriteHandler
	UserHandler     *handlers.UserHandler
}

// CORS is credentialed because the tokens ride in cookies; the browser only
// sends them when the origin is explicitly allow-listed.
func corsConfig() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		},
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "x-requested-with"},
		ExposeHeaders:    []string{"Set-Cookie"},
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(middleware.CORSWithConfig(corsConfig()))

	e.GET("/health", func(c echo.Context) error {
		status := "connected"
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.Ping() != nil {
			status = "disconnected"
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success":   true,
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"database":  status,
		})
	})

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, d.Tokens.Verify)
	auth.GET("/refresh", d.AuthHandler.Refresh)

	colleges := api.Group("/colleges")
	colleges.GET("", d.CollegeHandler.GetColleges, d.Tokens.Verify)
	colleges.GET("/search", d.CollegeHandler.Search)

	reviews := api.Group("/reviews", d.Tokens.Verify)
	reviews.GET("", d.ReviewHandler.GetAllReviews)
	reviews.GET("/user", d.ReviewHandler.GetUserReviews)
	reviews.POST("", d.ReviewHandler.PostReview)

	favorites := api.Group("/favorites", d.Tokens.Verify)
	favorites.GET("", d.FavoriteHandler.GetFavorites)
	favorites.POST("", d.FavoriteHandler.PostFavorite)
	favorites.DELETE("/:cid", d.FavoriteHandler.DeleteFavorite)

	users := api.Group("/users")
	users.GET("/all", d.UserHandler.GetAllUsers, d.Tokens.Verify)
	users.DELETE("/delete", d.UserHandler.DeleteUserByEmail)
	users.DELETE("/delete/:uid", d.UserHandler.DeleteUserByID)
}
