package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"userId"`
	Username     string    `gorm:"size:255;unique;not null" json:"username"`
	Email        string    `gorm:"size:255;unique;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null"        json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type College struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"collegeId"`
	Name      string    `gorm:"size:255;not null"        json:"collegeName"`
	Location  string    `gorm:"size:255;not null"        json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

type Course struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"courseId"`
	Name      string    `gorm:"size:255;not null"         json:"courseName"`
	Fee       float64   `gorm:"type:decimal(10,2);not null" json:"fee"`
	CollegeID uint      `gorm:"index;not null"            json:"collegeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// One review per user per college, enforced by the composite unique index.
type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                    json:"reviewId"`
	Rating    int       `gorm:"not null"                                    json:"rating"`
	Comment   string    `gorm:"size:1000;not null"                          json:"comment"`
	CollegeID uint      `gorm:"not null;uniqueIndex:idx_reviews_college_user" json:"collegeId"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_college_user" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type FavoriteCollege struct {
	UserID    uint      `gorm:"primaryKey" json:"userId"`
	CollegeID uint      `gorm:"primaryKey" json:"collegeId"`
	CreatedAt time.Time `json:"createdAt"`
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"tokenId"`
	Token     string    `gorm:"unique;not null"          json:"token"`
	UserID    uint      `gorm:"index;not null"           json:"userId"`
	ExpiresAt time.Time `gorm:"not null"                 json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	Revoked   bool      `gorm:"default:false"            json:"revoked"`
}
