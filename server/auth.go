package main

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/middleware"
	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/store"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

// LoginRequest represents the login request. Owners and admins authenticate
// with email/password; tenants with propertyId/username/password.
type LoginRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	PropertyID string `json:"propertyId"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string                `json:"access_token"`
	TokenType   string                `json:"token_type"`
	ExpiresIn   int64                 `json:"expires_in"`
	Profile     models.SessionProfile `json:"profile"`
}

// handleLogin authenticates a caller and issues an access token
func handleLogin(db *gorm.DB, am *middleware.AuthMiddleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var profile models.SessionProfile

		switch {
		case req.PropertyID != "" && req.Username != "":
			tenantProfile, ok := authenticateTenant(c, db, req)
			if !ok {
				return
			}
			profile = tenantProfile

		case req.Email != "":
			var user models.User
			err := db.Where("email = ?", models.NormalizeEmail(req.Email)).First(&user).Error
			if err != nil || !user.CheckPassword(req.Password) {
				utils.UnauthorizedResponse(c, "Invalid credentials")
				return
			}
			profile = models.SessionProfile{
				SubjectID: user.ID.String(),
				Email:     user.Email,
				Role:      user.Role,
			}

		default:
			utils.BadRequestResponse(c, "Either email or propertyId and username are required")
			return
		}

		token, expiresAt, err := am.IssueToken(profile, middleware.DefaultTokenTTL)
		if err != nil {
			logrus.WithError(err).Error("Failed to issue access token")
			utils.InternalServerErrorResponse(c, "Failed to log in")
			return
		}

		utils.OKResponse(c, "Logged in successfully", LoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
			Profile:     profile,
		})
	}
}

// authenticateTenant resolves a tenant login against the property aggregate.
func authenticateTenant(c *gin.Context, db *gorm.DB, req LoginRequest) (models.SessionProfile, bool) {
	propertyUUID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid property ID format")
		return models.SessionProfile{}, false
	}

	property, err := store.LoadProperty(db, propertyUUID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.UnauthorizedResponse(c, "Invalid credentials")
		} else {
			logrus.WithError(err).Error("Failed to load property for tenant login")
			utils.InternalServerErrorResponse(c, "Failed to log in")
		}
		return models.SessionProfile{}, false
	}

	for i := range property.Tenants {
		t := &property.Tenants[i]
		if t.Username == req.Username && models.VerifyPassword(t.PasswordHash, req.Password) {
			return models.SessionProfile{
				SubjectID:  t.ID,
				Role:       models.RoleTenant,
				PropertyID: property.ID.String(),
				FlatNo:     t.FlatNo,
			}, true
		}
	}

	utils.UnauthorizedResponse(c, "Invalid credentials")
	return models.SessionProfile{}, false
}

// handleLogout revokes the caller's session
func handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.SessionStoreAvailable() {
			if err := utils.RevokeTokenSession(middleware.ExtractToken(c)); err != nil {
				logrus.WithError(err).Warn("Failed to revoke session")
			}
		}
		utils.OKResponse(c, "Logged out successfully", nil)
	}
}

// handleMe returns the identity behind the current token
func handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.OKResponse(c, "Session retrieved successfully", middleware.GetSessionFromContext(c))
	}
}
