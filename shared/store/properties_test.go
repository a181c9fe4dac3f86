package store

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rentcare/rentcare-backend/shared/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Property{}))
	return db
}

func TestCreateAndLoadProperty(t *testing.T) {
	db := testDB(t)

	p := &models.Property{Name: "Store Street", Location: "Hyderabad"}
	require.NoError(t, CreateProperty(db, p))
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, int64(0), p.Version)

	loaded, err := LoadProperty(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, loaded.Name)
	assert.NotNil(t, loaded.Tenants)
	assert.NotNil(t, loaded.MaintenanceRequests)

	_, err = LoadProperty(db, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePropertyRoundTripsEmbeddedArrays(t *testing.T) {
	db := testDB(t)

	p := &models.Property{Name: "Embed Estate", Location: "Vizag"}
	require.NoError(t, CreateProperty(db, p))

	_, err := p.AddTenant(models.Tenant{
		Name: "Meera", FlatNo: "A-1", Username: "meera",
		PasswordHash: "$2a$10$somethingsomething", RentAmount: 950,
	})
	require.NoError(t, err)
	p.AddMaintenanceRequest(models.MaintenanceRequest{FlatNo: "A-1", Description: "noisy pipes"})
	require.NoError(t, SaveProperty(db, p))
	assert.Equal(t, int64(1), p.Version)

	loaded, err := LoadProperty(db, p.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tenants, 1)
	assert.Equal(t, "A-1", loaded.Tenants[0].FlatNo)
	assert.Equal(t, "$2a$10$somethingsomething", loaded.Tenants[0].PasswordHash)
	require.Len(t, loaded.MaintenanceRequests, 1)
	assert.Equal(t, "noisy pipes", loaded.MaintenanceRequests[0].Description)
}

func TestSavePropertyDetectsConcurrentWriter(t *testing.T) {
	db := testDB(t)

	p := &models.Property{Name: "Race Row", Location: "Kanpur"}
	require.NoError(t, CreateProperty(db, p))

	first, err := LoadProperty(db, p.ID)
	require.NoError(t, err)
	second, err := LoadProperty(db, p.ID)
	require.NoError(t, err)

	first.Name = "Winner"
	require.NoError(t, SaveProperty(db, first))

	second.Name = "Loser"
	err = SaveProperty(db, second)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// the first writer's change survives untouched
	loaded, err := LoadProperty(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Winner", loaded.Name)

	// reload and retry succeeds
	second, err = LoadProperty(db, p.ID)
	require.NoError(t, err)
	second.Location = "Kanpur East"
	require.NoError(t, SaveProperty(db, second))
}

func TestSaveDeletedProperty(t *testing.T) {
	db := testDB(t)

	p := &models.Property{Name: "Vanish Villa", Location: "Thane"}
	require.NoError(t, CreateProperty(db, p))
	loaded, err := LoadProperty(db, p.ID)
	require.NoError(t, err)

	require.NoError(t, DeleteProperty(db, p.ID))
	assert.ErrorIs(t, DeleteProperty(db, p.ID), ErrNotFound)

	loaded.Name = "Too Late"
	assert.ErrorIs(t, SaveProperty(db, loaded), ErrNotFound)
}

func TestListPropertiesByOwner(t *testing.T) {
	db := testDB(t)

	ownerID := uuid.New()
	owned := &models.Property{Name: "Mine", Location: "Here", OwnerID: &ownerID}
	require.NoError(t, CreateProperty(db, owned))
	require.NoError(t, CreateProperty(db, &models.Property{Name: "Nobody's", Location: "There"}))

	all, err := ListProperties(db, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := ListProperties(db, &ownerID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Mine", filtered[0].Name)
}
