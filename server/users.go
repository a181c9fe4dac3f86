package main

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

// CreateUserRequest represents the create user request
type CreateUserRequest struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents the update user request
type UpdateUserRequest struct {
	Role     *string `json:"role"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func newUserID() uuid.UUID {
	return uuid.New()
}

// handleListUsers handles listing users, optionally filtered by role
func handleListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Order("created_at")
		if role := c.Query("role"); role != "" {
			query = query.Where("role = ?", role)
		}

		var users []models.User
		if err := query.Find(&users).Error; err != nil {
			logrus.WithError(err).Error("Failed to fetch users")
			utils.InternalServerErrorResponse(c, "Failed to fetch users")
			return
		}

		utils.OKResponse(c, "Users retrieved successfully", users)
	}
}

// handleCreateUser handles user creation (admin adds an owner or another admin)
func handleCreateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Role == "" || req.Email == "" || req.Password == "" {
			utils.BadRequestResponse(c, "Role, email, and password are required.")
			return
		}

		role := models.UserRole(req.Role)
		if !role.IsValid() {
			utils.BadRequestResponse(c, "Role must be 'owner' or 'admin'")
			return
		}

		email := models.NormalizeEmail(req.Email)
		var existing models.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			utils.BadRequestResponse(c, "Email already exists.")
			return
		}

		user := models.User{ID: newUserID(), Role: role, Email: email}
		if err := user.SetPassword(req.Password); err != nil {
			logrus.WithError(err).Error("Failed to hash password")
			utils.InternalServerErrorResponse(c, "Failed to create user")
			return
		}

		if err := db.Create(&user).Error; err != nil {
			logrus.WithError(err).Error("Failed to create user")
			utils.InternalServerErrorResponse(c, "Failed to create user")
			return
		}

		utils.CreatedResponse(c, "User created successfully", user)
	}
}

// handleGetUser handles getting a specific user
func handleGetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID format")
			return
		}

		var user models.User
		if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFoundResponse(c, "User not found")
			} else {
				logrus.WithError(err).Error("Failed to fetch user")
				utils.InternalServerErrorResponse(c, "Failed to fetch user")
			}
			return
		}

		utils.OKResponse(c, "User retrieved successfully", user)
	}
}

// handleUpdateUser handles partial updates of a user
func handleUpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID format")
			return
		}

		var user models.User
		if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.NotFoundResponse(c, "User not found")
			} else {
				logrus.WithError(err).Error("Failed to fetch user")
				utils.InternalServerErrorResponse(c, "Failed to fetch user")
			}
			return
		}

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Role != nil {
			role := models.UserRole(*req.Role)
			if !role.IsValid() {
				utils.BadRequestResponse(c, "Role must be 'owner' or 'admin'")
				return
			}
			user.Role = role
		}
		if req.Email != nil {
			email := models.NormalizeEmail(*req.Email)
			var existing models.User
			if err := db.Where("email = ? AND id != ?", email, userID).First(&existing).Error; err == nil {
				utils.BadRequestResponse(c, "Email already exists for another user.")
				return
			}
			user.Email = email
		}
		if req.Password != nil {
			if err := user.SetPassword(*req.Password); err != nil {
				logrus.WithError(err).Error("Failed to hash password")
				utils.InternalServerErrorResponse(c, "Failed to update user")
				return
			}
		}

		if err := db.Save(&user).Error; err != nil {
			logrus.WithError(err).Error("Failed to update user")
			utils.InternalServerErrorResponse(c, "Failed to update user")
			return
		}

		utils.OKResponse(c, "User updated successfully", user)
	}
}

// handleDeleteUser handles deleting a user
func handleDeleteUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid user ID format")
			return
		}

		res := db.Where("id = ?", userID).Delete(&models.User{})
		if res.Error != nil {
			logrus.WithError(res.Error).Error("Failed to delete user")
			utils.InternalServerErrorResponse(c, "Failed to delete user")
			return
		}
		if res.RowsAffected == 0 {
			utils.NotFoundResponse(c, "User not found")
			return
		}

		if utils.SessionStoreAvailable() {
			_ = utils.RevokeAllSubjectSessions(userID.String())
		}

		utils.OKResponse(c, "User deleted successfully", nil)
	}
}
