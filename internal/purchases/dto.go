package purchases

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
)

// StoredMessage is returned with every successful store, replays included.
const StoredMessage = "Purchase stored successfully"

// StoreInput is the buyer's claim that paymentID paid for listingID. The
// price is never part of it.
type StoreInput struct {
	Username  string
	Email     string
	ListingID uuid.UUID
	PaymentID string
	Actor     *outbox.ActorRef
}

// StoreResult is the response of POST /api/purchases/store.
type StoreResult struct {
	Message    string    `json:"message"`
	DriveURL   string    `json:"driveUrl"`
	PurchaseID uuid.UUID `json:"purchaseId"`
	Replay     bool      `json:"-"`
}

func newStoreResult(p *models.Purchase, replay bool) *StoreResult {
	return &StoreResult{
		Message:    StoredMessage,
		DriveURL:   p.DriveURL,
		PurchaseID: p.ID,
		Replay:     replay,
	}
}

// PurchaseDTO is a buyer's purchase. Title, price and drive url are the
// values frozen at purchase time; Project carries the listing as it is now
// and is nil once the listing was deleted.
type PurchaseDTO struct {
	ID           uuid.UUID           `json:"id"`
	Username     string              `json:"username"`
	Email        string              `json:"email"`
	ProjectID    uuid.UUID           `json:"projectId"`
	ProjectTitle string              `json:"projectTitle"`
	PricePaid    json.Number         `json:"pricePaid"`
	Currency     enums.Currency      `json:"currency"`
	DriveURL     string              `json:"driveUrl"`
	PaymentID    string              `json:"paymentId"`
	CreatedAt    time.Time           `json:"createdAt"`
	Project      *catalog.ListingDTO `json:"project"`
}

func newPurchaseDTO(p models.Purchase, listing *models.Listing) PurchaseDTO {
	dto := PurchaseDTO{
		ID:           p.ID,
		Username:     p.BuyerUsername,
		Email:        p.BuyerEmail,
		ProjectID:    p.ListingID,
		ProjectTitle: p.ListingTitle,
		PricePaid:    money.Number(p.PricePaid, p.Currency),
		Currency:     p.Currency,
		DriveURL:     p.DriveURL,
		PaymentID:    p.PaymentID,
		CreatedAt:    p.CreatedAt,
	}
	if listing != nil {
		project := catalog.NewListingDTO(*listing)
		dto.Project = &project
	}
	return dto
}
