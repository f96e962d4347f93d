package models

import "time"

// AuthToken is a bearer token issued at login. Tokens are opaque random
// strings; a request presenting a valid token acts as the owning user until
// the token is revoked at logout.
type AuthToken struct {
	// ID is the unique identifier for the token row.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the owning user. Tokens cascade away with the user.
	UserID uint64 `gorm:"not null;index"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Token is the opaque bearer token value.
	Token string `gorm:"unique;size:100;not null"`
	// Name labels the token (e.g. "auth-token").
	Name string `gorm:"size:100"`
	// LastUsedAt is the time the token last authenticated a request.
	LastUsedAt *time.Time
	// CreatedAt is the timestamp when the token was issued (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the AuthToken model.
func (AuthToken) TableName() string {
	return "auth_tokens"
}
