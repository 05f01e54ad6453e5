package catalog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
)

// PlaceholderImage is stored when a listing is created without images.
const PlaceholderImage = "/placeholder.svg"

// ListingDTO is the API shape of a listing.
type ListingDTO struct {
	ID                 uuid.UUID      `json:"id"`
	Title              string         `json:"title"`
	ShortDescription   string         `json:"shortDescription"`
	Description        string         `json:"description"`
	Price              json.Number    `json:"price"`
	DiscountPercentage json.Number    `json:"discountPercentage"`
	FinalPrice         json.Number    `json:"finalPrice"`
	Currency           enums.Currency `json:"currency"`
	TechStack          []string       `json:"techStack"`
	Domain             string         `json:"domain"`
	Images             []string       `json:"images"`
	Videos             []string       `json:"videos"`
	Featured           bool           `json:"featured"`
	SoldCount          int64          `json:"soldCount"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// NewListingDTO maps a stored listing to its API shape.
func NewListingDTO(l models.Listing) ListingDTO {
	final, err := money.DiscountedPrice(l.Price, l.DiscountPercentage, l.Currency)
	if err != nil {
		final = l.Price
	}
	return ListingDTO{
		ID:                 l.ID,
		Title:              l.Title,
		ShortDescription:   l.ShortDescription,
		Description:        l.Description,
		Price:              money.Number(l.Price, l.Currency),
		DiscountPercentage: json.Number(l.DiscountPercentage.String()),
		FinalPrice:         money.Number(final, l.Currency),
		Currency:           l.Currency,
		TechStack:          nonNil(l.TechStack),
		Domain:             l.Domain,
		Images:             nonNil(l.Images),
		Videos:             nonNil(l.Videos),
		Featured:           l.Featured,
		SoldCount:          l.SoldCount,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// ListingInput carries every editable field. Create and full replace use it.
type ListingInput struct {
	Title              string
	ShortDescription   string
	Description        string
	Price              decimal.Decimal
	Currency           enums.Currency
	DiscountPercentage decimal.Decimal
	TechStack          []string
	Domain             string
	Images             []string
	Videos             []string
	Featured           bool
}

// ListingPatch updates only the non-nil fields.
type ListingPatch struct {
	Title              *string
	ShortDescription   *string
	Description        *string
	Price              *decimal.Decimal
	Currency           *enums.Currency
	DiscountPercentage *decimal.Decimal
	TechStack          *[]string
	Domain             *string
	Images             *[]string
	Videos             *[]string
	Featured           *bool
}

// ListFilter narrows the catalog listing. Zero values match everything.
type ListFilter struct {
	Domain    string
	Featured  *bool
	Query     string
	TechStack string
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
