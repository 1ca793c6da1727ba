package hostauth

import "time"

// Session mirrors the session table owned by the host platform's auth
// service. This module only reads it; the auth service writes it.
type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "app_auth.sessions" }
