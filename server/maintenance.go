package main

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rentcare/rentcare-backend/shared/middleware"
	"github.com/rentcare/rentcare-backend/shared/models"
	"github.com/rentcare/rentcare-backend/shared/utils"
)

// CreateMaintenanceRequest represents a new repair ticket submission
type CreateMaintenanceRequest struct {
	FlatNo      string `json:"flatNo"`
	Description string `json:"description"`
}

// UpdateMaintenanceRequest represents a status/remarks change on a ticket
type UpdateMaintenanceRequest struct {
	Status  *string `json:"status"`
	Remarks *string `json:"remarks"`
}

// MaintenanceRequestView is a request enriched with the submitting tenant's
// display name, resolved through the stable tenant id captured at creation.
type MaintenanceRequestView struct {
	models.MaintenanceRequest
	TenantName string `json:"tenantName"`
}

// TenantRemovedLabel is shown for requests whose submitting tenant has since
// been deleted.
const TenantRemovedLabel = "Tenant removed"

func maintenanceView(p *models.Property, r models.MaintenanceRequest) MaintenanceRequestView {
	view := MaintenanceRequestView{MaintenanceRequest: r}
	if r.TenantID != "" {
		if t, ok := p.TenantByID(r.TenantID); ok {
			view.TenantName = t.Name
			return view
		}
		view.TenantName = TenantRemovedLabel
		return view
	}
	// Legacy entries without a tenant id fall back to flat number matching
	if t, ok := p.Tenant(r.FlatNo); ok {
		view.TenantName = t.Name
		return view
	}
	view.TenantName = TenantRemovedLabel
	return view
}

// handleListMaintenanceRequests returns the property's requests with tenant
// names resolved for display
func handleListMaintenanceRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		views := make([]MaintenanceRequestView, 0, len(property.MaintenanceRequests))
		for _, r := range property.MaintenanceRequests {
			views = append(views, maintenanceView(property, r))
		}

		utils.OKResponse(c, "Maintenance requests retrieved successfully", views)
	}
}

// handleAddMaintenanceRequest appends a repair ticket to the aggregate.
// Tenant sessions may only file against their own flat.
func handleAddMaintenanceRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}

		var req CreateMaintenanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		session := middleware.GetSessionFromContext(c)
		if session.Role == models.RoleTenant {
			req.FlatNo = session.FlatNo
		}

		if req.FlatNo == "" || req.Description == "" {
			utils.BadRequestResponse(c, "Flat number and description are required.")
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		added := property.AddMaintenanceRequest(models.MaintenanceRequest{
			FlatNo:      req.FlatNo,
			Description: req.Description,
		})

		if !saveProperty(c, db, property) {
			return
		}

		utils.CreatedResponse(c, "Maintenance request created successfully", added)
	}
}

// handleUpdateMaintenanceRequest changes a ticket's status or remarks
func handleUpdateMaintenanceRequest(db *gorm.DB, producer *EventProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		requestID := c.Param("requestId")

		var req UpdateMaintenanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		target, found := property.MaintenanceRequestByID(requestID)
		if !found {
			utils.NotFoundResponse(c, "Maintenance request not found")
			return
		}

		if req.Status != nil {
			status := models.MaintenanceStatus(*req.Status)
			if !status.IsValid() {
				utils.BadRequestResponse(c, "Status must be 'Pending', 'In Progress', or 'Resolved'")
				return
			}
			target.Status = status
		}
		if req.Remarks != nil {
			target.Remarks = *req.Remarks
		}

		if !saveProperty(c, db, property) {
			return
		}

		producer.Publish(EventMaintenanceUpdated, property.ID.String(), target.FlatNo, map[string]interface{}{
			"requestId": target.ID,
			"status":    string(target.Status),
		})

		utils.OKResponse(c, "Maintenance request updated successfully", target)
	}
}

// handleRemoveMaintenanceRequest deletes a ticket by id
func handleRemoveMaintenanceRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := propertyID(c)
		if !ok {
			return
		}
		requestID := c.Param("requestId")

		property, ok := loadProperty(c, db, id)
		if !ok {
			return
		}

		if err := property.RemoveMaintenanceRequest(requestID); err != nil {
			utils.NotFoundResponse(c, "Maintenance request not found")
			return
		}

		if !saveProperty(c, db, property) {
			return
		}

		utils.OKResponse(c, "Maintenance request deleted successfully", property)
	}
}
