package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/types"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// Listing is a sellable project in the catalog.
type Listing struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Title              string             `gorm:"column:title;not null"`
	ShortDescription   string             `gorm:"column:short_description;not null"`
	Description        string             `gorm:"column:description;not null"`
	Price              decimal.Decimal    `gorm:"column:price;type:numeric(14,3);not null"`
	Currency           enums.Currency     `gorm:"column:currency;type:text;not null;default:INR"`
	DiscountPercentage decimal.Decimal    `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	TechStack          dbtypes.StringList `gorm:"column:tech_stack"`
	Domain             string             `gorm:"column:domain;not null"`
	Images             dbtypes.StringList `gorm:"column:images"`
	Videos             dbtypes.StringList `gorm:"column:videos"`
	Featured           bool               `gorm:"column:featured;not null;default:false"`
	SoldCount          int64              `gorm:"column:sold_count;not null;default:0"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Listing) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
