package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/collegedash/college_dashboard/internal/models"
)

type Config struct {
	ENV           string
	HTTP_PORT     string
	DB_HOST       string
	DB_PORT       string
	DB_USER       string
	DB_PASSWORD   string
	DB_NAME       string
	ES_URL        string
	ES_USER       string
	ES_PASSWORD   string
	KAFKA_ADDRESS string
	AccessSecret  []byte
	RefreshSecret []byte
}

func (c *Config) IsProduction() bool {
	return c.ENV == "production"
}

// LoadConfig reads the environment once at process start. The two signing
// secrets fall back to SECRET_JWT_KEY (refresh gets a "_refresh" suffix) so a
// single-key setup still ends up with two distinct secrets; with no key at all
// startup fails hard.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		ENV:           os.Getenv("ENV"),
		HTTP_PORT:     os.Getenv("HTTP_PORT"),
		DB_HOST:       os.Getenv("DB_HOST"),
		DB_PORT:       os.Getenv("DB_PORT"),
		DB_USER:       os.Getenv("DB_USER"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       os.Getenv("DB_NAME"),
		ES_URL:        os.Getenv("ES_URL"),
		ES_USER:       os.Getenv("ES_USER"),
		ES_PASSWORD:   os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
	}
	if config.HTTP_PORT == "" {
		config.HTTP_PORT = "5000"
	}

	access := os.Getenv("ACCESS_TOKEN_SECRET")
	refresh := os.Getenv("REFRESH_TOKEN_SECRET")
	fallback := os.Getenv("SECRET_JWT_KEY")
	if access == "" {
		access = fallback
	}
	if refresh == "" && fallback != "" {
		refresh = fallback + "_refresh"
	}
	if access == "" || refresh == "" {
		return nil, errors.New("JWT secrets not configured properly")
	}
	config.AccessSecret = []byte(access)
	config.RefreshSecret = []byte(refresh)

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.College{},
		&models.Course{},
		&models.Review{},
		&models.FavoriteCollege{},
		&models.RefreshToken{},
	)
}
