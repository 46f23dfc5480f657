package models

import (
	"time"
)

// Session is a server-side login session. The primary key is the opaque
// session token itself, generated by pkg/crypto and carried in a cookie.
//
// A session is valid iff ExpiredAt is in the future. Logout and bulk
// revocation set ExpiredAt to the current time instead of deleting the
// row; rows are removed physically only when the owning user is deleted.
type Session struct {
	SessionID    string `gorm:"primaryKey" json:"session_id"`
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	RefreshToken string `gorm:"uniqueIndex;not null" json:"refresh_token"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	// CreatedAt is the last (re)issue time; it moves forward on extension.
	CreatedAt time.Time `json:"created_at"`
	ExpiredAt time.Time `gorm:"index" json:"expired_at"`
}

// Active reports whether the session is valid at the supplied instant.
func (s *Session) Active(now time.Time) bool {
	return s.ExpiredAt.After(now)
}
