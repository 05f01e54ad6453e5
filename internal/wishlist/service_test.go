package wishlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/dbtest"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(conn),
		Listings: catalog.NewRepository(conn),
		DB:       db.Wrap(conn),
		Logger:   logger.Nop(),
	})
	require.NoError(t, err)
	return svc, conn
}

func seedListing(t *testing.T, conn *gorm.DB, title string) models.Listing {
	t.Helper()
	l := models.Listing{
		Title:    title,
		Price:    decimal.NewFromInt(500),
		Currency: enums.CurrencyINR,
		Domain:   "Education",
	}
	require.NoError(t, conn.Create(&l).Error)
	return l
}

func TestToggleAddsThenRemoves(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	listing := seedListing(t, conn, "Quiz App")

	res, err := svc.Toggle(ctx, "Fan@Example.com", listing.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAdded, res.Status)

	items, err := svc.List(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Quiz App", items[0].Title)

	res, err = svc.Toggle(ctx, "fan@example.com", listing.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRemoved, res.Status)

	items, err = svc.List(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestToggleUnknownListing(t *testing.T) {
	svc, conn := newTestService(t)
	_, err := svc.Toggle(context.Background(), "fan@example.com", uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var n int64
	require.NoError(t, conn.Model(&models.WishlistEntry{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestToggleValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Toggle(context.Background(), "", uuid.Nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestConcurrentTogglesStayConsistent(t *testing.T) {
	svc, conn := newTestService(t)
	listing := seedListing(t, conn, "Chat App")

	const n = 6
	var wg sync.WaitGroup
	statuses := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Toggle(context.Background(), "fan@example.com", listing.ID)
			statuses[i], errs[i] = res.Status, err
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	added, removed := 0, 0
	for _, s := range statuses {
		switch s {
		case StatusAdded:
			added++
		case StatusRemoved:
			removed++
		}
	}
	require.Equal(t, n/2, added)
	require.Equal(t, n/2, removed)

	var count int64
	require.NoError(t, conn.Model(&models.WishlistEntry{}).Where("email = ?", "fan@example.com").Count(&count).Error)
	require.Zero(t, count)
}

func TestListNewestFirstAndScopedByEmail(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	first := seedListing(t, conn, "First")
	second := seedListing(t, conn, "Second")

	_, err := svc.Toggle(ctx, "fan@example.com", first.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "fan@example.com", second.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "other@example.com", first.ID)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.WishlistEntry{}).
		Where("email = ? AND listing_id = ?", "fan@example.com", first.ID).
		UpdateColumn("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	items, err := svc.List(ctx, "fan@example.com")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Second", items[0].Title)
	require.Equal(t, "First", items[1].Title)
}
