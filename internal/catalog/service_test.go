package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/dbtest"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:            NewRepository(conn),
		DB:              db.Wrap(conn),
		Outbox:          outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Logger:          logger.Nop(),
		DefaultCurrency: enums.CurrencyINR,
	})
	require.NoError(t, err)
	return svc, conn
}

func validInput(title string) ListingInput {
	return ListingInput{
		Title:              title,
		ShortDescription:   "Track stock across stores",
		Description:        "Full inventory tracker with barcode support.",
		Price:              decimal.NewFromInt(1000),
		DiscountPercentage: decimal.NewFromInt(15),
		TechStack:          []string{"Go", "React", " go ", ""},
		Domain:             "Retail",
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("Inventory Tracker"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, enums.CurrencyINR, created.Currency)
	require.Equal(t, []string{PlaceholderImage}, created.Images)
	require.Equal(t, []string{"Go", "React"}, created.TechStack)
	require.Equal(t, "1000.00", created.Price.String())
	require.Equal(t, "850.00", created.FinalPrice.String())
	require.Equal(t, int64(0), created.SoldCount)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, fetched.Title)
	require.Equal(t, []string{"Go", "React"}, fetched.TechStack)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]func(in *ListingInput){
		"title":              func(in *ListingInput) { in.Title = "  " },
		"domain":             func(in *ListingInput) { in.Domain = "" },
		"price":              func(in *ListingInput) { in.Price = decimal.NewFromInt(-1) },
		"discountPercentage": func(in *ListingInput) { in.DiscountPercentage = decimal.NewFromInt(101) },
		"currency":           func(in *ListingInput) { in.Currency = "XYZ" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validInput("Bad")
			mutate(&in)
			_, err := svc.Create(ctx, in)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			require.True(t, ok)
			require.Contains(t, details, field)
		})
	}
}

func TestCreateRejectsUnchargeablePrices(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := map[string]struct {
		mutate func(in *ListingInput)
		field  string
	}{
		"zero price":     {func(in *ListingInput) { in.Price = decimal.Zero }, "price"},
		"full discount":  {func(in *ListingInput) { in.DiscountPercentage = decimal.NewFromInt(100) }, "discountPercentage"},
		"rounds to zero": {func(in *ListingInput) { in.Price, in.DiscountPercentage = decimal.RequireFromString("0.01"), decimal.NewFromInt(60) }, "discountPercentage"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput("Free")
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			require.True(t, ok)
			require.Contains(t, details, tc.field)
		})
	}
}

func TestCreateRejectsSubMinorPrice(t *testing.T) {
	svc, _ := newTestService(t)
	in := validInput("Precise")
	in.Price = decimal.RequireFromString("10.005")
	_, err := svc.Create(context.Background(), in)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetMissingListing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	require.Equal(t, "listing not found", pkgerrors.As(err).Message())
}

func TestListFiltersAndOrder(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput("Inventory Tracker"))
	require.NoError(t, err)
	second := validInput("Clinic Booking")
	second.Domain = "Healthcare"
	second.TechStack = []string{"Python"}
	second.Featured = true
	created, err := svc.Create(ctx, second)
	require.NoError(t, err)

	// Force a deterministic creation order.
	require.NoError(t, conn.Model(&models.Listing{}).Where("id = ?", first.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	all, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, created.ID, all[0].ID)

	featured := true
	got, err := svc.List(ctx, ListFilter{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Clinic Booking", got[0].Title)

	got, err = svc.List(ctx, ListFilter{Domain: "Retail"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, first.ID, got[0].ID)

	got, err = svc.List(ctx, ListFilter{Query: "clinic"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = svc.List(ctx, ListFilter{TechStack: "Python"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, created.ID, got[0].ID)

	got, err = svc.List(ctx, ListFilter{Query: "100%"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReplaceAndPatch(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("Inventory Tracker"))
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Listing{}).Where("id = ?", created.ID).Update("sold_count", 4).Error)

	replacement := validInput("Inventory Tracker Pro")
	replacement.Images = []string{"/img/a.png"}
	replaced, err := svc.Replace(ctx, created.ID, replacement)
	require.NoError(t, err)
	require.Equal(t, "Inventory Tracker Pro", replaced.Title)
	require.Equal(t, []string{"/img/a.png"}, replaced.Images)
	require.Equal(t, int64(4), replaced.SoldCount)

	discount := decimal.NewFromInt(50)
	featured := true
	patched, err := svc.Patch(ctx, created.ID, ListingPatch{DiscountPercentage: &discount, Featured: &featured})
	require.NoError(t, err)
	require.Equal(t, "500.00", patched.FinalPrice.String())
	require.True(t, patched.Featured)
	require.Equal(t, "Inventory Tracker Pro", patched.Title)

	bad := decimal.NewFromInt(-5)
	_, err = svc.Patch(ctx, created.ID, ListingPatch{Price: &bad})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Patch(ctx, uuid.New(), ListingPatch{Featured: &featured})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRemovesMappingAndWishlistAndEmitsEvent(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("Inventory Tracker"))
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.EntitlementMapping{ListingID: created.ID, DriveURL: "https://drive.google.com/drive/folders/1AbCdEfGhIjKlMnOp"}).Error)
	require.NoError(t, conn.Create(&models.WishlistEntry{Email: "buyer@x.com", ListingID: created.ID}).Error)

	require.NoError(t, svc.Delete(ctx, created.ID, &outbox.ActorRef{Email: "admin@x.com", Role: "admin"}))

	_, err = svc.Get(ctx, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var mappings, wishes int64
	require.NoError(t, conn.Model(&models.EntitlementMapping{}).Count(&mappings).Error)
	require.NoError(t, conn.Model(&models.WishlistEntry{}).Count(&wishes).Error)
	require.Zero(t, mappings)
	require.Zero(t, wishes)

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventListingDeleted, events[0].EventType)
	require.Equal(t, created.ID, events[0].AggregateID)

	err = svc.Delete(ctx, created.ID, nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRefusesSoldListing(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("Inventory Tracker"))
	require.NoError(t, err)
	require.NoError(t, conn.Create(&models.EntitlementMapping{ListingID: created.ID, DriveURL: "https://drive.google.com/drive/folders/1AbCdEfGhIjKlMnOp"}).Error)
	order := &models.Order{GatewayOrderID: "sq-1", IdempotencyKey: "k1", AmountMinor: 85000, Currency: enums.CurrencyINR, Receipt: "r1", Status: enums.OrderStatusPaid}
	require.NoError(t, conn.Create(order).Error)
	purchase := &models.Purchase{
		BuyerUsername: "Asha",
		BuyerEmail:    "buyer@x.com",
		ListingID:     created.ID,
		ListingTitle:  "Inventory Tracker",
		PricePaid:     decimal.NewFromInt(850),
		Currency:      enums.CurrencyINR,
		DriveURL:      "https://drive.google.com/drive/folders/1AbCdEfGhIjKlMnOp",
		PaymentID:     "pay-1",
		OrderID:       order.ID,
	}
	require.NoError(t, conn.Create(purchase).Error)

	err = svc.Delete(ctx, created.ID, &outbox.ActorRef{Email: "admin@x.com", Role: "admin"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)

	var mappings, purchases, events int64
	require.NoError(t, conn.Model(&models.EntitlementMapping{}).Count(&mappings).Error)
	require.NoError(t, conn.Model(&models.Purchase{}).Count(&purchases).Error)
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&events).Error)
	require.EqualValues(t, 1, mappings)
	require.EqualValues(t, 1, purchases)
	require.Zero(t, events)
}

func TestIncrementAndDrift(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	listing := &models.Listing{Title: "A", Domain: "Retail", Price: decimal.NewFromInt(10), Currency: enums.CurrencyINR}
	require.NoError(t, repo.Create(ctx, listing))

	rows, err := repo.IncrementSoldCount(ctx, listing.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	drift, err := repo.FindSoldCountDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	require.Equal(t, int64(1), drift[0].SoldCount)
	require.Zero(t, drift[0].Purchases)

	updated, err := repo.SetSoldCount(ctx, listing.ID, 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	updated, err = repo.SetSoldCount(ctx, listing.ID, 1, 0)
	require.NoError(t, err)
	require.Zero(t, updated)
}
