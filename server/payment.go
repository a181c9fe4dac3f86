package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rentcare/rentcare-backend/shared/utils"
)

// CreateCheckoutSessionRequest mirrors the payload the frontend sends when a
// tenant starts a rent payment.
type CreateCheckoutSessionRequest struct {
	Tenant struct {
		RentAmount float64 `json:"rentAmount"`
		FlatNo     string  `json:"flatNo"`
	} `json:"tenant"`
	PropertyID string `json:"propertyId"`
}

// handleCreateCheckoutSession validates the tenant/property pair and asks the
// provider for a session. Validation failures never reach the provider.
func handleCreateCheckoutSession(provider CheckoutProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCheckoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Tenant details, property ID, and rent amount are required.")
			return
		}

		if req.PropertyID == "" || req.Tenant.FlatNo == "" || req.Tenant.RentAmount <= 0 {
			utils.BadRequestResponse(c, "Tenant details, property ID, and rent amount are required.")
			return
		}

		sessionID, err := provider.CreateSession(CheckoutInput{
			PropertyID: req.PropertyID,
			FlatNo:     req.Tenant.FlatNo,
			RentAmount: req.Tenant.RentAmount,
		})
		if err != nil {
			logrus.WithError(err).Error("Checkout session creation failed")
			utils.InternalServerErrorResponse(c, err.Error())
			return
		}

		utils.OKResponse(c, "Checkout session created", gin.H{"id": sessionID})
	}
}
