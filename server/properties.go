package main

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/store"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

// CreatePropertyRequest represents the create property request. Tenants and
// maintenance requests may be seeded inline; tenant passwords arrive in
// plaintext and are hashed before the aggregate is persisted.
type CreatePropertyRequest struct {
	Name                string                      `json:"name"`
	Location            string                      `json:"location"`
	OwnerID             *string                     `json:"ownerId"`
	Tenants             []TenantInput               `json:"tenants"`
	MaintenanceRequests []models.MaintenanceRequest `json:"maintenanceRequests"`
}

// UpdatePropertyRequest represents the update property request. Embedded
// collections are mutated through their dedicated routes, not replaced here.
type UpdatePropertyRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	OwnerID  *string `json:"ownerId"`
}

// propertyID parses the :id route parameter, responding 400 before any store
// access when it is malformed.
func propertyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid property ID format")
		return uuid.Nil, false
	}
	return id, true
}

// loadProperty loads the aggregate and writes the error response on failure.
func loadProperty(c *gin.Context, db *gorm.DB, id uuid.UUID) (*models.Property, bool) {
	p, err := store.LoadProperty(db, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.NotFoundResponse(c, "Property not found")
		} else {
			logrus.WithError(err).Error("Failed to load property")
			utils.InternalServerErrorResponse(c, "Failed to fetch property")
		}
		return nil, false
	}
	return p, true
}

// saveProperty persists the aggregate and writes the error response on
// failure. A concurrent writer surfaces as 409 for the client to retry.
func saveProperty(c *gin.Context, db *gorm.DB, p *models.Property) bool {
	if err := store.SaveProperty(db, p); err != nil {
		switch {
		case errors.Is(err, store.ErrVersionConflict):
			utils.ConflictResponse(c, "Property was modified concurrently, please retry")
		case errors.Is(err, store.ErrNotFound):
			utils.NotFoundResponse(c, "Property not found")
		default:
			logrus.WithError(err).Error("Failed to save property")
			utils.InternalServerErrorResponse(c, "Failed to save property")
		}
		return false
	}
	return true
}

func parseOwnerID(raw string) (*uuid.UUID, error) {
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &ownerID, nil
}

// handleListProperties handles listing properties, optionally filtered by owner
func handleListProperties(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ownerID *uuid.UUID
		if raw := c.Query("ownerId"); raw != "" {
			parsed, err := parseOwnerID(raw)
			if err != nil {
				utils.BadRequestResponse(c, "Invalid ownerId format")
				return
			}
			ownerID = parsed
		}

		properties, err := store.ListProperties(db, ownerID)
		if err != nil {
			logrus.WithError(err).Error("Failed to fetch properties")
			utils.InternalServerErrorResponse(c, "Failed to fetch properties")
			return
		}

		utils.OKResponse(c, "Properties retrieved successfully", properties)
	}
}

// handleCreateProperty handles property creation
func handleCreateProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePropertyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Name == "" || req.Location == "" {
			utils.BadRequestResponse(c, "Property name and location are required.")
			return
		}

		property := models.Property{
			Name:                req.Name,
			Location:            req.Location,
			Tenants:             models.TenantList{},
			MaintenanceRequests: models.MaintenanceRequestList{},
		}

		if req.OwnerID != nil && *req.OwnerID != "" {
			ownerID, err := parseOwnerID(*req.OwnerID)
			if err != nil {
				utils.BadRequestResponse(c, "Invalid ownerId format")
				return
			}
			property.OwnerID = ownerID
		}

		for _, in := range req.Tenants {
			tenant, err := in.toTenant()
			if err != nil {
				utils.BadRequestResponse(c, err.Error())
				return
			}
			if _, err := property.AddTenant(tenant); err != nil {
				utils.BadRequestResponse(c, err.Error())
				return
			}
		}
		for _, mr := range req.MaintenanceRequests {
			if mr.Status != "" && !mr.Status.IsValid() {
				utils.BadRequestResponse(c, "Invalid maintenance request status")
				return
			}
			property.AddMaintenanceRequest(mr)
		}

		if err := store.CreateProperty(db, &property); err != nil {
			logrus.WithError(err).Error("Failed to create property")
			utils.InternalServerErrorResponse(c, "Failed to create property")
			return
		}

		utils.CreatedResponse(c, "Property created successfully", property)
	}
}

// handleGetProperty handles getting a specific property aggregate
func handleGetProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		utils.OKResponse(c, "Property retrieved successfully", property)
	}
}

// handleUpdateProperty handles partial updates of the aggregate's own fields
func handleUpdateProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}

		var req UpdatePropertyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		if req.Name != nil {
			if *req.Name == "" {
				utils.BadRequestResponse(c, "Property name and location are required.")
				return
			}
			property.Name = *req.Name
		}
		if req.Location != nil {
			if *req.Location == "" {
				utils.BadRequestResponse(c, "Property name and location are required.")
				return
			}
			property.Location = *req.Location
		}
		if req.OwnerID != nil {
			if *req.OwnerID == "" {
				property.OwnerID = nil
			} else {
				ownerID, err := parseOwnerID(*req.OwnerID)
				if err != nil {
					utils.BadRequestResponse(c, "Invalid ownerId format")
					return
				}
				property.OwnerID = ownerID
			}
		}

		if !saveProperty(c, db, property) {
			return
		}

		utils.OKResponse(c, "Property updated successfully", property)
	}
}

// handleDeleteProperty handles deleting a property and everything embedded in it
func handleDeleteProperty(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}

		if err := store.DeleteProperty(db, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.NotFoundResponse(c, "Property not found")
			} else {
				logrus.WithError(err).Error("Failed to delete property")
				utils.InternalServerErrorResponse(c, "Failed to delete property")
			}
			return
		}

		utils.OKResponse(c, "Property deleted successfully", nil)
	}
}
