package domain

import (
	"strings"
	"time"
)

// User is the account and credential record.
//
// PasswordHash always holds a bcrypt hash. RefreshToken is single-slot: it
// holds the most recently issued refresh token or nil when none is valid.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	WatchHistory []string  `json:"watchHistory"`
	PasswordHash string    `json:"-"`
	RefreshToken *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitized returns a copy without password hash and refresh token.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.RefreshToken = nil
	if u.WatchHistory != nil {
		out.WatchHistory = append([]string(nil), u.WatchHistory...)
	} else {
		out.WatchHistory = []string{}
	}
	return &out
}

// HasRefreshToken reports whether token is the currently stored refresh token.
func (u *User) HasRefreshToken(token string) bool {
	return u.RefreshToken != nil && token != "" && *u.RefreshToken == token
}

// UserUpdate is a field-level patch. Nil fields are left untouched.
// ClearRefreshToken unsets the refresh token and wins over RefreshToken.
type UserUpdate struct {
	Email             *string
	FullName          *string
	Avatar            *string
	CoverImage        *string
	PasswordHash      *string
	RefreshToken      *string
	ClearRefreshToken bool
}

// IsEmpty reports whether the patch would not change anything.
func (p UserUpdate) IsEmpty() bool {
	return p.Email == nil && p.FullName == nil && p.Avatar == nil && p.CoverImage == nil &&
		p.PasswordHash == nil && p.RefreshToken == nil && !p.ClearRefreshToken
}

func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
