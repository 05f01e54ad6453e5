package controllers

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/auth"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/delivery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/mappings"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/orders"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/purchases"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/relay"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/users"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/wishlist"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
)

type fakeCatalog struct {
	filter  catalog.ListFilter
	created catalog.ListingInput
	patch   catalog.ListingPatch
	deleted uuid.UUID
	actor   *outbox.ActorRef
	listing catalog.ListingDTO
	err     error
}

func (f *fakeCatalog) List(ctx context.Context, filter catalog.ListFilter) ([]catalog.ListingDTO, error) {
	f.filter = filter
	return []catalog.ListingDTO{f.listing}, f.err
}

func (f *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (catalog.ListingDTO, error) {
	return f.listing, f.err
}

func (f *fakeCatalog) Create(ctx context.Context, input catalog.ListingInput) (catalog.ListingDTO, error) {
	f.created = input
	return f.listing, f.err
}

func (f *fakeCatalog) Replace(ctx context.Context, id uuid.UUID, input catalog.ListingInput) (catalog.ListingDTO, error) {
	f.created = input
	return f.listing, f.err
}

func (f *fakeCatalog) Patch(ctx context.Context, id uuid.UUID, patch catalog.ListingPatch) (catalog.ListingDTO, error) {
	f.patch = patch
	return f.listing, f.err
}

func (f *fakeCatalog) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	f.deleted = id
	f.actor = actor
	return f.err
}

type fakeMappings struct {
	input mappings.MappingInput
	err   error
}

func (f *fakeMappings) List(ctx context.Context) ([]mappings.MappingDTO, error) {
	return []mappings.MappingDTO{}, f.err
}

func (f *fakeMappings) Get(ctx context.Context, id uuid.UUID) (mappings.MappingDTO, error) {
	return mappings.MappingDTO{ID: id}, f.err
}

func (f *fakeMappings) Create(ctx context.Context, input mappings.MappingInput) (mappings.MappingDTO, error) {
	f.input = input
	return mappings.MappingDTO{ID: uuid.New(), ListingID: input.ListingID, DriveURL: input.DriveURL}, f.err
}

func (f *fakeMappings) Update(ctx context.Context, id uuid.UUID, input mappings.MappingInput) (mappings.MappingDTO, error) {
	f.input = input
	return mappings.MappingDTO{ID: id, ListingID: input.ListingID, DriveURL: input.DriveURL}, f.err
}

func (f *fakeMappings) Delete(ctx context.Context, id uuid.UUID) error {
	return f.err
}

type fakeOrders struct {
	input     orders.CreateOrderInput
	paymentID string
	err       error
}

func (f *fakeOrders) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &orders.OrderDTO{ID: uuid.New(), GatewayOrderID: "sq_order", Amount: 50000, Currency: "INR", Receipt: "r1", Status: "created"}, nil
}

func (f *fakeOrders) VerifyPayment(ctx context.Context, paymentID string) (*orders.OrderDTO, error) {
	f.paymentID = paymentID
	if f.err != nil {
		return nil, f.err
	}
	return &orders.OrderDTO{ID: uuid.New(), Status: "paid"}, nil
}

func (f *fakeOrders) ConfirmPayment(ctx context.Context, paymentID string) (*models.Order, error) {
	return nil, f.err
}

func (f *fakeOrders) ReconcilePayment(ctx context.Context, payment square.GatewayPayment, source string) (*models.Order, error) {
	return nil, f.err
}

func (f *fakeOrders) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return 0, f.err
}

type fakePurchases struct {
	input     purchases.StoreInput
	listEmail string
	err       error
}

func (f *fakePurchases) Store(ctx context.Context, input purchases.StoreInput) (*purchases.StoreResult, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &purchases.StoreResult{Message: purchases.StoredMessage, DriveURL: "https://drive.google.com/drive/folders/abc", PurchaseID: uuid.New()}, nil
}

func (f *fakePurchases) ListByEmail(ctx context.Context, email string) ([]purchases.PurchaseDTO, error) {
	f.listEmail = email
	return []purchases.PurchaseDTO{}, f.err
}

func (f *fakePurchases) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	return nil, f.err
}

type fakeWishlist struct {
	email     string
	listingID uuid.UUID
	err       error
}

func (f *fakeWishlist) Toggle(ctx context.Context, email string, listingID uuid.UUID) (wishlist.ToggleResult, error) {
	f.email = email
	f.listingID = listingID
	return wishlist.ToggleResult{Status: wishlist.StatusAdded}, f.err
}

func (f *fakeWishlist) List(ctx context.Context, email string) ([]catalog.ListingDTO, error) {
	f.email = email
	return []catalog.ListingDTO{}, f.err
}

type fakeAuth struct {
	credential string
	revoked    string
	err        error
}

func (f *fakeAuth) SignInWithGoogle(ctx context.Context, credential string) (*auth.SignInResponse, error) {
	f.credential = credential
	if f.err != nil {
		return nil, f.err
	}
	return &auth.SignInResponse{Token: "jwt", ExpiresIn: 86400, User: &users.UserDTO{Email: "buyer@example.com"}}, nil
}

func (f *fakeAuth) CurrentUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &users.UserDTO{ID: userID, Email: "buyer@example.com"}, nil
}

func (f *fakeAuth) Logout(ctx context.Context, accessID string) error {
	f.revoked = accessID
	return f.err
}

type fakeRelay struct {
	req relay.ContactRequest
	err error
}

func (f *fakeRelay) Send(ctx context.Context, req relay.ContactRequest) (*relay.Result, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &relay.Result{Message: relay.SentMessage}, nil
}

func (f *fakeRelay) Limits() config.RelayConfig {
	return config.RelayConfig{MaxImages: 5, MaxDocuments: 5, MaxTotalBytes: 1 << 20}
}

type fakeDelivery struct {
	requester delivery.Requester
	err       error
}

func (f *fakeDelivery) Prepare(ctx context.Context, purchaseID uuid.UUID, who delivery.Requester) (*delivery.Bundle, error) {
	f.requester = who
	if f.err != nil {
		return nil, f.err
	}
	return &delivery.Bundle{PurchaseID: purchaseID, Filename: "Shop Kit.zip"}, nil
}

func (f *fakeDelivery) WriteZip(ctx context.Context, bundle *delivery.Bundle, w io.Writer) error {
	_, err := w.Write([]byte("PK"))
	return err
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error {
	return f.err
}
