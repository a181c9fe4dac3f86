package main

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentcare/rentcare-backend/shared/models"
)

func TestAddMaintenanceRequest(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProperty(t, "Fixit Flats", "Pune")
	tenant := env.addTenant(t, p.ID.String(), seedTenant("M-1"))
	token := env.adminToken(t)

	w := env.request(t, http.MethodPost, "/properties/"+p.ID.String()+"/maintenance-requests", gin.H{
		"flatNo": "M-1", "description": "Broken geyser",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.MaintenanceRequest
	decodeData(t, w, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.MaintenancePending, created.Status)
	assert.NotEmpty(t, created.Date)
	// submitting tenant's stable id is captured at creation
	assert.Equal(t, tenant.ID, created.TenantID)

	w = env.request(t, http.MethodPost, "/properties/"+p.ID.String()+"/maintenance-requests", gin.H{
		"flatNo": "M-1",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTenantSubmitsOwnMaintenanceRequest(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProperty(t, "Self Service", "Kochi")
	tenant := env.addTenant(t, p.ID.String(), seedTenant("T-7"))
	tok := env.tenantToken(t, tenant.ID, p.ID.String(), "T-7")

	// flat comes from the session, not the body
	w := env.request(t, http.MethodPost, "/properties/"+p.ID.String()+"/maintenance-requests", gin.H{
		"flatNo": "SOMEONE-ELSE", "description": "Fan not working",
	}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.MaintenanceRequest
	decodeData(t, w, &created)
	assert.Equal(t, "T-7", created.FlatNo)
	assert.Equal(t, tenant.ID, created.TenantID)
}

func TestUpdateMaintenanceRequest(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProperty(t, "Status Court", "Nashik")
	env.addTenant(t, p.ID.String(), seedTenant("U-1"))
	token := env.adminToken(t)

	w := env.request(t, http.MethodPost, "/properties/"+p.ID.String()+"/maintenance-requests", gin.H{
		"flatNo": "U-1", "description": "Peeling paint",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.MaintenanceRequest
	decodeData(t, w, &created)

	w = env.request(t, http.MethodPut, "/properties/"+p.ID.String()+"/maintenance-requests/"+created.ID, gin.H{
		"status": "In Progress", "remarks": "Painter booked",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.MaintenanceRequest
	decodeData(t, w, &updated)
	assert.Equal(t, models.MaintenanceInProgress, updated.Status)
	assert.Equal(t, "Painter booked", updated.Remarks)

	w = env.request(t, http.MethodPut, "/properties/"+p.ID.String()+"/maintenance-requests/"+created.ID, gin.H{
		"status": "Done",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPut, "/properties/"+p.ID.String()+"/maintenance-requests/does-not-exist", gin.H{
		"status": "Resolved",
	}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaintenanceListResolvesTenantNames(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProperty(t, "Name Resolver", "Agra")
	env.addTenant(t, p.ID.String(), seedTenant("R-1"))
	token := env.adminToken(t)

	w := env.request(t, http.MethodPost, "/properties/"+p.ID.String()+"/maintenance-requests", gin.H{
		"flatNo": "R-1", "description": "Clogged drain",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodGet, "/properties/"+p.ID.String()+"/maintenance-requests", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var views []MaintenanceRequestView
	decodeData(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "Asha Verma", views[0].TenantName)

	// after the tenant is deleted the request reports a distinct removed state
	w = env.request(t, http.MethodDelete, "/properties/"+p.ID.String()+"/tenants/R-1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/properties/"+p.ID.String()+"/maintenance-requests", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, TenantRemovedLabel, views[0].TenantName)
}

func TestRemoveMaintenanceRequest(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProperty(t, "Cleanup Corner", "Patna")
	env.addTenant(t, p.ID.String(), seedTenant("C-1"))
	token := env.adminToken(t)

	w := env.request(t, http.MethodPost, "/properties/"+p.ID.String()+"/maintenance-requests", gin.H{
		"flatNo": "C-1", "description": "Cracked tile",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.MaintenanceRequest
	decodeData(t, w, &created)

	w = env.request(t, http.MethodDelete, "/properties/"+p.ID.String()+"/maintenance-requests/"+created.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var after models.Property
	decodeData(t, w, &after)
	assert.Len(t, after.MaintenanceRequests, 0)

	w = env.request(t, http.MethodDelete, "/properties/"+p.ID.String()+"/maintenance-requests/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
