package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentcare/rentcare-backend/shared/models"
)

func seedUser(t *testing.T, env *testEnv, role models.UserRole, email, password string) models.User {
	t.Helper()
	user := models.User{ID: newUserID(), Role: role, Email: models.NormalizeEmail(email)}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, env.db.Create(&user).Error)
	return user
}

func TestLoginWithEmail(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, models.RoleOwner, "owner@x.com", "hunter2")

	w := env.request(t, http.MethodPost, "/auth/login", gin.H{
		"email": "Owner@X.com", "password": "hunter2",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	decodeData(t, w, &resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, models.RoleOwner, resp.Profile.Role)

	// the issued token is accepted by protected routes
	w = env.request(t, http.MethodGet, "/properties", nil, resp.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, models.RoleOwner, "owner@x.com", "hunter2")

	w := env.request(t, http.MethodPost, "/auth/login", gin.H{
		"email": "owner@x.com", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decodeEnvelope(t, w).Error)

	w = env.request(t, http.MethodPost, "/auth/login", gin.H{
		"email": "nobody@x.com", "password": "hunter2",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantLogin(t *testing.T) {
	env := newTestEnv(t)
	p := env.createProperty(t, "Login Lane", "Mysore")
	created := env.addTenant(t, p.ID.String(), seedTenant("LG-1"))

	w := env.request(t, http.MethodPost, "/auth/login", gin.H{
		"propertyId": p.ID.String(),
		"username":   "asha-lg-1",
		"password":   "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LoginResponse
	decodeData(t, w, &resp)
	assert.Equal(t, models.RoleTenant, resp.Profile.Role)
	assert.Equal(t, p.ID.String(), resp.Profile.PropertyID)
	assert.Equal(t, "LG-1", resp.Profile.FlatNo)
	assert.Equal(t, created.ID, resp.Profile.SubjectID)

	w = env.request(t, http.MethodPost, "/auth/login", gin.H{
		"propertyId": p.ID.String(),
		"username":   "asha-lg-1",
		"password":   "nope",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	w := env.request(t, http.MethodGet, "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var profile models.SessionProfile
	decodeData(t, w, &profile)
	assert.Equal(t, models.RoleAdmin, profile.Role)
	assert.Equal(t, "admin@rentcare.test", profile.Email)

	w = env.request(t, http.MethodGet, "/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/auth/login", gin.H{"password": "p"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/auth/login", gin.H{"email": "a@b.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginResponseCarriesNoSecrets(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env, models.RoleAdmin, "admin@x.com", "topsecret")

	w := env.request(t, http.MethodPost, "/auth/login", gin.H{
		"email": "admin@x.com", "password": "topsecret",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, w.Body.String(), "topsecret")
	assert.NotContains(t, w.Body.String(), "$2a$")
}
