package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// Purchase is the immutable proof of entitlement. Title, price and drive url
// are snapshots taken when the purchase was recorded; deleting or editing the
// listing afterwards does not touch them.
type Purchase struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BuyerUsername string          `gorm:"column:buyer_username;not null"`
	BuyerEmail    string          `gorm:"column:buyer_email;not null;uniqueIndex:purchases_buyer_listing_payment_key,priority:1"`
	ListingID     uuid.UUID       `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:purchases_buyer_listing_payment_key,priority:2"`
	ListingTitle  string          `gorm:"column:listing_title;not null"`
	PricePaid     decimal.Decimal `gorm:"column:price_paid;type:numeric(14,3);not null"`
	Currency      enums.Currency  `gorm:"column:currency;type:text;not null"`
	DriveURL      string          `gorm:"column:drive_url;not null"`
	PaymentID     string          `gorm:"column:payment_id;not null;uniqueIndex:purchases_buyer_listing_payment_key,priority:3;uniqueIndex:purchases_payment_id_key"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Purchase) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
