package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// AdminAccount holds dashboard credentials. The password is stored only as
// a bcrypt hash and never serialized into responses.
type AdminAccount struct {
	Email        string     `json:"email" dynamodbav:"email"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	IsActive     bool       `json:"isActive" dynamodbav:"is_active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" dynamodbav:"last_login"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// SetPassword hashes plaintext and stores the hash. It is the only path
// that writes PasswordHash.
func (a *AdminAccount) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plaintext matches the stored hash.
func (a *AdminAccount) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) == nil
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on a successful admin login.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AdminStats is the dashboard aggregate payload.
type AdminStats struct {
	Overview StatusCounts  `json:"overview"`
	Signups  SignupCounts  `json:"signups"`
	Growth   []DailyCount  `json:"growth"`
	Recent   []RecentEntry `json:"recent"`
}

type StatusCounts struct {
	Total        int `json:"total"`
	Confirmed    int `json:"confirmed"`
	Pending      int `json:"pending"`
	Unsubscribed int `json:"unsubscribed"`
}

type SignupCounts struct {
	Today     int `json:"today"`
	ThisWeek  int `json:"thisWeek"`
	ThisMonth int `json:"thisMonth"`
}

// DailyCount is one midnight-to-midnight bucket of the growth series.
type DailyCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type RecentEntry struct {
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
