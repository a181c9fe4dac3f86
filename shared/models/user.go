package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRole is the role stored on a User account. Tenants have no User row;
// RoleTenant only ever appears in session claims issued against a property's
// embedded tenant.
type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleAdmin  UserRole = "admin"
	RoleTenant UserRole = "tenant"
)

// IsValid reports whether the role can be stored on a User account.
func (r UserRole) IsValid() bool {
	return r == RoleOwner || r == RoleAdmin
}

// User is an owner or admin account. Passwords are accepted in plaintext on
// the wire, hashed with bcrypt before persist and never serialized back.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(plain string) error {
	hash, err := HashPassword(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return VerifyPassword(u.PasswordHash, plain)
}

// NormalizeEmail lowercases an email for the case-insensitive unique index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches the bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// SessionProfile is the identity attached to an access token. For tenants,
// PropertyID and FlatNo scope the session to one flat of one property.
type SessionProfile struct {
	SubjectID  string   `json:"subjectId"`
	Email      string   `json:"email,omitempty"`
	Role       UserRole `json:"role"`
	PropertyID string   `json:"propertyId,omitempty"`
	FlatNo     string   `json:"flatNo,omitempty"`
}

// TokenSession is the revocable server-side session stored in Redis, keyed by
// a hash of the access token.
type TokenSession struct {
	Profile    SessionProfile `json:"profile"`
	CreatedAt  time.Time      `json:"created_at"`
	LastUsedAt time.Time      `json:"last_used_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
	SessionID  string         `json:"session_id"`
}

// IsExpired reports whether the session has passed its expiry.
func (ts *TokenSession) IsExpired() bool {
	return time.Now().After(ts.ExpiresAt)
}

// UpdateLastUsed stamps the session with the current time.
func (ts *TokenSession) UpdateLastUsed() {
	ts.LastUsedAt = time.Now()
}
