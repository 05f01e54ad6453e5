package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntitlementMapping links a listing to its private delivery folder.
// The listing title is not stored; readers join it from listings.
type EntitlementMapping struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:entitlement_mappings_listing_id_key"`
	DriveURL  string    `gorm:"column:drive_url;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *EntitlementMapping) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
