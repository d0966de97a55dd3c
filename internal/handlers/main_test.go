package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/events"
	"github.com/collegedash/college_dashboard/internal/hash"
	"github.com/collegedash/college_dashboard/internal/models"
	"github.com/collegedash/college_dashboard/internal/service/token"
)

type testEnv struct {
	T         *testing.T
	E         *echo.Echo
	DB        *gorm.DB
	Tokens    *token.Service
	Auth      *AuthHandler
	Colleges  *CollegeHandler
	Reviews   *ReviewHandler
	Favorites *FavoriteHandler
	Users     *UserHandler
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.College{},
		&models.Course{},
		&models.Review{},
		&models.FavoriteCollege{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)

	tokens := &token.Service{
		DB:            db,
		AccessSecret:  []byte("test_access_secret"),
		RefreshSecret: []byte("test_refresh_secret"),
	}
	prod := events.NewProducer(nil)

	return &testEnv{
		T:         t,
		E:         echo.New(),
		DB:        db,
		Tokens:    tokens,
		Auth:      &AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		Colleges:  &CollegeHandler{DB: db},
		Reviews:   &ReviewHandler{DB: db, Producer: prod},
		Favorites: &FavoriteHandler{DB: db, Producer: prod},
		Users:     &UserHandler{DB: db},
	}
}

func (env *testEnv) request(method, path string, body any, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return env.E.NewContext(req, rec), rec
}

func (env *testEnv) createUser(username, email, password string) models.User {
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{Username: username, Email: email, PasswordHash: pwHash}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) createCollege(name, location, course string, fee float64) models.College {
	college := models.College{Name: name, Location: location}
	require.NoError(env.T, env.DB.Create(&college).Error)
	require.NoError(env.T, env.DB.Create(&models.Course{
		Name: course, Fee: fee, CollegeID: college.ID,
	}).Error)
	return college
}

// login runs the real login handler and returns the recorded cookies so
// follow-up requests can replay them like a browser would.
func (env *testEnv) login(email, password string) []*http.Cookie {
	c, rec := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(env.T, env.Auth.Login(c))
	require.Equal(env.T, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(env.T, cookies, 2)
	return cookies
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
