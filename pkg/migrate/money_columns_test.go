package migrate

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
)

const testDSNEnv = "BAZAAR_TEST_DB_DSN"

func TestMoneyColumnsHoldThreeDecimals(t *testing.T) {
	for _, name := range []string{"create_listings_table", "create_purchases_table"} {
		if strings.Contains(readMigration(t, name), "numeric(12,2)") {
			t.Fatalf("%s truncates three-decimal currencies", name)
		}
	}
}

func TestThreeDecimalCurrencyRoundTripsThroughPostgres(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{DSN: dsn, Driver: "postgres"}, logger.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	sqlDB, err := client.DB().DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if err := Run(ctx, sqlDB, "migrations", CommandUp); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	conn := client.DB()
	listing := models.Listing{
		Title:              "Souq POS",
		Domain:             "Retail",
		Price:              decimal.RequireFromString("10.130"),
		DiscountPercentage: decimal.NewFromInt(15),
		Currency:           enums.CurrencyKWD,
	}
	if err := conn.Create(&listing).Error; err != nil {
		t.Fatalf("create listing: %v", err)
	}
	charged, err := money.DiscountedPrice(listing.Price, listing.DiscountPercentage, listing.Currency)
	if err != nil {
		t.Fatalf("discounted price: %v", err)
	}
	chargedMinor, err := money.ToMinorUnits(charged, listing.Currency)
	if err != nil {
		t.Fatalf("minor units: %v", err)
	}

	suffix := uuid.NewString()
	order := models.Order{
		GatewayOrderID: "sq_" + suffix,
		IdempotencyKey: "idem_" + suffix,
		AmountMinor:    chargedMinor,
		Currency:       enums.CurrencyKWD,
		Receipt:        "rcpt_" + suffix,
		Status:         enums.OrderStatusPaid,
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	purchase := models.Purchase{
		BuyerUsername: "noor",
		BuyerEmail:    "noor@example.com",
		ListingID:     listing.ID,
		ListingTitle:  listing.Title,
		PricePaid:     charged,
		Currency:      enums.CurrencyKWD,
		DriveURL:      "https://drive.google.com/drive/folders/souq",
		PaymentID:     "pay_" + suffix,
		OrderID:       order.ID,
	}
	if err := conn.Create(&purchase).Error; err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	var storedListing models.Listing
	if err := conn.First(&storedListing, "id = ?", listing.ID).Error; err != nil {
		t.Fatalf("reload listing: %v", err)
	}
	if !storedListing.Price.Equal(listing.Price) {
		t.Fatalf("listing price stored as %s, want %s", storedListing.Price, listing.Price)
	}

	var storedPurchase models.Purchase
	if err := conn.First(&storedPurchase, "id = ?", purchase.ID).Error; err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	paidMinor, err := money.ToMinorUnits(storedPurchase.PricePaid, enums.CurrencyKWD)
	if err != nil {
		t.Fatalf("stored price: %v", err)
	}
	if paidMinor != order.AmountMinor {
		t.Fatalf("price paid %s (%d minor) differs from charged %d", storedPurchase.PricePaid, paidMinor, order.AmountMinor)
	}
	if chargedMinor != 8611 {
		t.Fatalf("expected 8.611 KWD charged, got %d minor", chargedMinor)
	}
}
