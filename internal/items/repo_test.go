package items

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wisherr-app/wisherr-backend/pkg/db/models"
	"github.com/wisherr-app/wisherr-backend/pkg/enums"
)

func setupItemsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  wishlist_id TEXT NOT NULL,
  name TEXT NOT NULL,
  url TEXT,
  image_url TEXT,
  description TEXT,
  price REAL,
  category_id TEXT,
  priority_id TEXT,
  status TEXT NOT NULL DEFAULT 'available',
  custom_attributes TEXT,
  sort_order INTEGER NOT NULL DEFAULT 0,
  reserved_by TEXT,
  reserved_by_name TEXT,
  reserved_at DATETIME,
  purchased_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	categories := `
CREATE TABLE IF NOT EXISTS item_categories (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  icon TEXT,
  created_at DATETIME
);`
	priorities := `
CREATE TABLE IF NOT EXISTS item_priorities (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  weight INTEGER NOT NULL DEFAULT 0,
  color TEXT
);`
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(priorities).Error)
	return db
}

func createItem(t *testing.T, db *gorm.DB, wishlistID uuid.UUID, name string, sortOrder int, status enums.ItemStatus, created time.Time) *models.Item {
	t.Helper()

	item := &models.Item{
		ID:         uuid.New(),
		WishlistID: wishlistID,
		Name:       name,
		Status:     status,
		SortOrder:  sortOrder,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryReserve_singleWinner(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)

	wishlistID := uuid.New()
	item := createItem(t, db, wishlistID, "Camera", 0, enums.ItemStatusAvailable, time.Now().UTC())

	first := uuid.New()
	second := uuid.New()
	now := time.Now().UTC()

	affected, err := repo.Reserve(context.Background(), item.ID, &first, nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.Reserve(context.Background(), item.ID, &second, nil, now)
	require.NoError(t, err)
	assert.Zero(t, affected)

	stored, err := repo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusReserved, stored.Status)
	require.NotNil(t, stored.ReservedBy)
	assert.Equal(t, first, *stored.ReservedBy)
	assert.NotNil(t, stored.ReservedAt)
}

func TestRepositoryUnreserve_clearsAttribution(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)

	wishlistID := uuid.New()
	item := createItem(t, db, wishlistID, "Headphones", 0, enums.ItemStatusAvailable, time.Now().UTC())

	reserver := uuid.New()
	name := "Cousin Amy"
	now := time.Now().UTC()

	affected, err := repo.Reserve(context.Background(), item.ID, &reserver, &name, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	affected, err = repo.Unreserve(context.Background(), item.ID, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	stored, err := repo.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ItemStatusAvailable, stored.Status)
	assert.Nil(t, stored.ReservedBy)
	assert.Nil(t, stored.ReservedByName)
	assert.Nil(t, stored.ReservedAt)

	affected, err = repo.Unreserve(context.Background(), item.ID, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepositoryListByWishlist_ordering(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)

	wishlistID := uuid.New()
	now := time.Now().UTC()
	createItem(t, db, wishlistID, "Reserved First", 0, enums.ItemStatusReserved, now.Add(-time.Hour))
	createItem(t, db, wishlistID, "Available Second", 2, enums.ItemStatusAvailable, now.Add(-time.Minute))
	createItem(t, db, wishlistID, "Available First", 1, enums.ItemStatusAvailable, now)

	list, err := repo.ListByWishlist(context.Background(), wishlistID, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Available First", list[0].Name)
	assert.Equal(t, "Available Second", list[1].Name)
	assert.Equal(t, "Reserved First", list[2].Name)

	status := enums.ItemStatusAvailable
	available, err := repo.ListByWishlist(context.Background(), wishlistID, &status)
	require.NoError(t, err)
	assert.Len(t, available, 2)
}

func TestRepositoryReorder_assignsPositions(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)

	wishlistID := uuid.New()
	now := time.Now().UTC()
	a := createItem(t, db, wishlistID, "A", 0, enums.ItemStatusAvailable, now)
	b := createItem(t, db, wishlistID, "B", 1, enums.ItemStatusAvailable, now)
	c := createItem(t, db, wishlistID, "C", 2, enums.ItemStatusAvailable, now)

	require.NoError(t, repo.Reorder(context.Background(), wishlistID, []uuid.UUID{c.ID, a.ID, b.ID}))

	list, err := repo.ListByWishlist(context.Background(), wishlistID, nil)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "C", list[0].Name)
	assert.Equal(t, "A", list[1].Name)
	assert.Equal(t, "B", list[2].Name)

	next, err := repo.NextSortOrder(context.Background(), wishlistID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestRepositoryCategories_scopedToUser(t *testing.T) {
	db := setupItemsTestDB(t)
	repo := NewRepository(db)

	owner := uuid.New()
	other := uuid.New()

	category := &models.ItemCategory{ID: uuid.New(), UserID: owner, Name: "Books"}
	require.NoError(t, repo.CreateCategory(context.Background(), category))

	mine, err := repo.ListCategories(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Books", mine[0].Name)

	theirs, err := repo.ListCategories(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	updated, err := repo.UpdateCategory(context.Background(), other, category.ID, map[string]any{"name": "Hijacked"})
	require.NoError(t, err)
	assert.False(t, updated)

	deleted, err := repo.DeleteCategory(context.Background(), owner, category.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
