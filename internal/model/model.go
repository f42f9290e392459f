// Package model defines domain entities used by API clients, the cache and the CLI.
package model

import "time"

// Role names issued by the auth service.
const (
	RoleRoot      = "ROOT"
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
	RoleUser      = "USER"
)

// UserProfile is the snapshot of the user returned by the last successful auth response.
type UserProfile struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	FullName  *string  `json:"fullName"`
	Enabled   bool     `json:"enabled"`
	NotBanned bool     `json:"notBanned"`
}

// HasRole reports whether the profile carries role r.
func (u UserProfile) HasRole(r string) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Credentials is the persisted session: both tokens and the profile, or nothing.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *UserProfile
}

// Complete reports whether all three parts are present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.User != nil
}

// TokenPair is the result of a token refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	User         UserProfile `json:"userDetails"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// LoginInput is the login form; Identifier is a username or an email.
type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

// Account is a stored user of the dev server: the public profile and the password hash.
type Account struct {
	Profile      UserProfile
	PasswordHash string
	CreatedAt    time.Time
}
