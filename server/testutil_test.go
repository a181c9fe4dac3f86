package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rentcare/rentcare-backend/shared/middleware"
	"github.com/rentcare/rentcare-backend/shared/models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeCheckout stands in for the Stripe client so handler tests can assert
// whether the provider was reached.
type fakeCheckout struct {
	calls     []CheckoutInput
	sessionID string
	err       error
}

func (f *fakeCheckout) CreateSession(in CheckoutInput) (string, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return "", f.err
	}
	if f.sessionID == "" {
		return "cs_test_123", nil
	}
	return f.sessionID, nil
}

type testEnv struct {
	router   *gin.Engine
	db       *gorm.DB
	auth     *middleware.AuthMiddleware
	checkout *fakeCheckout
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Property{}))

	auth, err := middleware.NewAuthMiddleware("test-signing-secret")
	require.NoError(t, err)

	checkout := &fakeCheckout{}
	router := setupRouter(db, auth, checkout, nil)

	return &testEnv{router: router, db: db, auth: auth, checkout: checkout}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Data, "response has no data: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := e.auth.IssueToken(models.SessionProfile{
		SubjectID: "00000000-0000-0000-0000-00000000ad01",
		Email:     "admin@rentcare.test",
		Role:      models.RoleAdmin,
	}, middleware.DefaultTokenTTL)
	require.NoError(t, err)
	return token
}

func (e *testEnv) ownerToken(t *testing.T) string {
	t.Helper()
	token, _, err := e.auth.IssueToken(models.SessionProfile{
		SubjectID: "00000000-0000-0000-0000-0000000000f1",
		Email:     "owner@rentcare.test",
		Role:      models.RoleOwner,
	}, middleware.DefaultTokenTTL)
	require.NoError(t, err)
	return token
}

func (e *testEnv) tenantToken(t *testing.T, subjectID, propertyID, flatNo string) string {
	t.Helper()
	token, _, err := e.auth.IssueToken(models.SessionProfile{
		SubjectID:  subjectID,
		Role:       models.RoleTenant,
		PropertyID: propertyID,
		FlatNo:     flatNo,
	}, middleware.DefaultTokenTTL)
	require.NoError(t, err)
	return token
}

// createProperty seeds a property through the API and returns its decoded form.
func (e *testEnv) createProperty(t *testing.T, name, location string) models.Property {
	t.Helper()
	w := e.request(t, http.MethodPost, "/properties", gin.H{
		"name":     name,
		"location": location,
	}, e.adminToken(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p models.Property
	decodeData(t, w, &p)
	return p
}

// addTenant seeds a tenant through the API and returns the decoded tenant.
func (e *testEnv) addTenant(t *testing.T, propertyID string, in TenantInput) models.Tenant {
	t.Helper()
	w := e.request(t, http.MethodPost, "/properties/"+propertyID+"/tenants", in, e.adminToken(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tenant models.Tenant
	decodeData(t, w, &tenant)
	return tenant
}
