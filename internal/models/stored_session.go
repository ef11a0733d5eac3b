package models

import "time"

// StoredSession persists the token pair of a signed-in profile.
type StoredSession struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Profile      string    `json:"profile" gorm:"uniqueIndex"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
