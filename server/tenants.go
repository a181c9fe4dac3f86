package main

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/middleware"
	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

// TenantInput represents a tenant as submitted by a client, with the
// plaintext password that is hashed before persistence.
type TenantInput struct {
	Name       string  `json:"name"`
	FlatNo     string  `json:"flatNo"`
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	RentAmount float64 `json:"rentAmount"`
}

// UpdateTenantRequest represents the update tenant request
type UpdateTenantRequest struct {
	Name          *string  `json:"name"`
	FlatNo        *string  `json:"flatNo"`
	Username      *string  `json:"username"`
	Password      *string  `json:"password"`
	RentAmount    *float64 `json:"rentAmount"`
	PaymentStatus *string  `json:"paymentStatus"`
}

// NotifyTenantRequest represents the notification message request
type NotifyTenantRequest struct {
	Message string `json:"message" binding:"required"`
}

// PaymentSuccessRequest represents the post-redirect reconciliation request
type PaymentSuccessRequest struct {
	RentAmount float64 `json:"rentAmount"`
}

func (in TenantInput) toTenant() (models.Tenant, error) {
	if in.Name == "" || in.FlatNo == "" || in.Username == "" || in.Password == "" {
		return models.Tenant{}, fmt.Errorf("tenant name, flat number, username, and password are required")
	}
	if in.RentAmount <= 0 {
		return models.Tenant{}, fmt.Errorf("tenant rent amount must be a positive number")
	}
	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return models.Tenant{}, fmt.Errorf("failed to hash tenant password: %w", err)
	}
	return models.Tenant{
		Name:         in.Name,
		FlatNo:       in.FlatNo,
		Username:     in.Username,
		PasswordHash: hash,
		RentAmount:   in.RentAmount,
	}, nil
}

// handleAddTenant appends a tenant to the property aggregate
func handleAddTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}

		var in TenantInput
		if err := c.ShouldBindJSON(&in); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		tenant, err := in.toTenant()
		if err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		added, err := property.AddTenant(tenant)
		if err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		if !saveProperty(c, db, property) {
			return
		}

		utils.CreatedResponse(c, "Tenant added successfully", added)
	}
}

// handleUpdateTenant handles partial updates of a tenant, addressed by flat number
func handleUpdateTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		flatNo := c.Param("flatNo")

		var req UpdateTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		tenant, found := property.Tenant(flatNo)
		if !found {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}

		if req.FlatNo != nil && *req.FlatNo != tenant.FlatNo {
			if _, taken := property.Tenant(*req.FlatNo); taken {
				utils.BadRequestResponse(c, models.ErrDuplicateFlat.Error())
				return
			}
			tenant.FlatNo = *req.FlatNo
		}
		if req.Name != nil {
			tenant.Name = *req.Name
		}
		if req.Username != nil {
			tenant.Username = *req.Username
		}
		if req.Password != nil {
			hash, err := models.HashPassword(*req.Password)
			if err != nil {
				logrus.WithError(err).Error("Failed to hash tenant password")
				utils.InternalServerErrorResponse(c, "Failed to update tenant")
				return
			}
			tenant.PasswordHash = hash
		}
		if req.RentAmount != nil {
			if *req.RentAmount <= 0 {
				utils.BadRequestResponse(c, "tenant rent amount must be a positive number")
				return
			}
			tenant.RentAmount = *req.RentAmount
		}
		if req.PaymentStatus != nil {
			status := models.PaymentStatus(*req.PaymentStatus)
			if !status.IsValid() {
				utils.BadRequestResponse(c, "Payment status must be 'Pending' or 'Paid'")
				return
			}
			tenant.PaymentStatus = status
		}

		if !saveProperty(c, db, property) {
			return
		}

		utils.OKResponse(c, "Tenant updated successfully", tenant)
	}
}

// handleRemoveTenant deletes a tenant by flat number. Maintenance requests
// referencing the flat are left untouched and become orphaned.
func handleRemoveTenant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		flatNo := c.Param("flatNo")

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		tenant, found := property.Tenant(flatNo)
		if !found {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}
		tenantID := tenant.ID

		if err := property.RemoveTenant(flatNo); err != nil {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}

		if !saveProperty(c, db, property) {
			return
		}

		if utils.SessionStoreAvailable() {
			_ = utils.RevokeAllSubjectSessions(tenantID)
		}

		utils.OKResponse(c, "Tenant deleted successfully", property)
	}
}

// handlePaymentSuccess records a completed rent payment after the client
// returns from checkout. Each call appends a fresh Paid history entry; the
// flow is deliberately additive, never idempotent.
func handlePaymentSuccess(db *gorm.DB, producer *EventProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		flatNo := c.Param("flatNo")

		session := middleware.GetSessionFromContext(c)
		if session.Role == models.RoleTenant && session.FlatNo != flatNo {
			utils.ForbiddenResponse(c, "Tenants can only record their own payments")
			return
		}

		var req PaymentSuccessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}
		if req.RentAmount <= 0 {
			utils.BadRequestResponse(c, "Rent amount must be a positive number")
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		tenant, err := property.RecordPayment(flatNo, req.RentAmount)
		if err != nil {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}

		if !saveProperty(c, db, property) {
			return
		}

		producer.Publish(EventPaymentRecorded, property.ID.String(), flatNo, map[string]interface{}{
			"tenantId": tenant.ID,
			"amount":   req.RentAmount,
		})

		utils.OKResponse(c, "Payment status updated successfully", gin.H{"tenant": tenant})
	}
}

// handleNotifyTenant appends a notification message and stamps lastNotify
func handleNotifyTenant(db *gorm.DB, producer *EventProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		flatNo := c.Param("flatNo")

		var req NotifyTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Notification message is required")
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		tenant, err := property.Notify(flatNo, req.Message)
		if err != nil {
			utils.NotFoundResponse(c, "Tenant not found")
			return
		}

		if !saveProperty(c, db, property) {
			return
		}

		producer.Publish(EventTenantNotified, property.ID.String(), flatNo, map[string]interface{}{
			"tenantId": tenant.ID,
			"message":  req.Message,
		})

		utils.OKResponse(c, "Tenant notified successfully", tenant)
	}
}

// handleRemovePaymentEntry deletes a single payment history entry by id
func handleRemovePaymentEntry(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		flatNo := c.Param("flatNo")
		entryID := c.Param("entryId")

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		if err := property.RemovePaymentEntry(flatNo, entryID); err != nil {
			if errors.Is(err, models.ErrTenantNotFound) {
				utils.NotFoundResponse(c, "Tenant not found")
			} else {
				utils.NotFoundResponse(c, "Payment history entry not found")
			}
			return
		}

		if !saveProperty(c, db, property) {
			return
		}

		tenant, _ := property.Tenant(flatNo)
		utils.OKResponse(c, "Payment history entry deleted successfully", tenant)
	}
}
