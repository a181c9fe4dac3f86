// Package store persists the Property aggregate as a whole document. Every
// nested mutation goes through LoadProperty / SaveProperty so the embedded
// arrays are always read and written together, with an optimistic version
// check guarding against concurrent writers overwriting each other.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/models"
)

var (
	// ErrNotFound is returned when no property matches the given id
	ErrNotFound = errors.New("property not found")
	// ErrVersionConflict is returned when the aggregate's version advanced
	// between load and save; the caller should reload and retry
	ErrVersionConflict = errors.New("property was modified concurrently")
)

// ListProperties returns all properties, optionally filtered by owner.
func ListProperties(db *gorm.DB, ownerID *uuid.UUID) ([]models.Property, error) {
	var properties []models.Property
	query := db.Order("created_at")
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}
	if err := query.Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

// CreateProperty inserts a new aggregate at version 0.
func CreateProperty(db *gorm.DB, p *models.Property) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Tenants == nil {
		p.Tenants = models.TenantList{}
	}
	if p.MaintenanceRequests == nil {
		p.MaintenanceRequests = models.MaintenanceRequestList{}
	}
	p.Version = 0
	if err := db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// LoadProperty fetches the whole aggregate by id.
func LoadProperty(db *gorm.DB, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	return &p, nil
}

// SaveProperty writes the whole aggregate back in one statement, compare-and-
// swapping on the version loaded with it. A stale version yields
// ErrVersionConflict and leaves the stored document untouched.
func SaveProperty(db *gorm.DB, p *models.Property) error {
	res := db.Model(&models.Property{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"name":                 p.Name,
			"location":             p.Location,
			"owner_id":             p.OwnerID,
			"tenants":              p.Tenants,
			"maintenance_requests": p.MaintenanceRequests,
			"version":              p.Version + 1,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save property: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.Property{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to save property: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	p.Version++
	return nil
}

// DeleteProperty removes the aggregate and everything embedded in it.
func DeleteProperty(db *gorm.DB, id uuid.UUID) error {
	res := db.Where("id = ?", id).Delete(&models.Property{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete property: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
