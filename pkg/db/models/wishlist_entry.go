package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WishlistEntry marks a listing as favorited by a buyer email.
type WishlistEntry struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;index:wishlist_entries_email_idx;uniqueIndex:wishlist_entries_email_listing_key,priority:1"`
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:wishlist_entries_email_listing_key,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (w *WishlistEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
