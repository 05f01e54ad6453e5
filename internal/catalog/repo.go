package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/repo"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
)

// Repository persists catalog listings.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// List returns listings newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Listing, error) {
	query := r.DB(ctx).Model(&models.Listing{})
	if domain := strings.TrimSpace(filter.Domain); domain != "" {
		query = query.Where("domain = ?", domain)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("LOWER(title) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if tech := strings.TrimSpace(filter.TechStack); tech != "" {
		if repo.IsPostgres(query) {
			query = query.Where("? = ANY(tech_stack)", tech)
		} else {
			// sqlite keeps the array literal as text.
			query = query.Where("tech_stack LIKE ? ESCAPE '\\'", "%"+escapeLike(tech)+"%")
		}
	}

	var listings []models.Listing
	if err := query.Order("created_at DESC").Order("id DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.DB(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByIDForUpdate loads the listing with a row lock when the dialect
// supports one. Call it inside a transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := repo.ForUpdate(r.DB(ctx)).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// FindByIDs returns the listings found among ids keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Listing, error) {
	out := make(map[uuid.UUID]models.Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var listings []models.Listing
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&listings).Error; err != nil {
		return nil, err
	}
	for _, l := range listings {
		out[l.ID] = l
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.DB(ctx).Create(listing).Error
}

// Save writes every column of an existing listing. sold_count is left alone;
// it only moves through IncrementSoldCount and the reconcile job.
func (r *Repository) Save(ctx context.Context, listing *models.Listing) error {
	return r.DB(ctx).Model(listing).Select(
		"title", "short_description", "description", "price", "currency",
		"discount_percentage", "tech_stack", "domain", "images", "videos", "featured", "updated_at",
	).Updates(listing).Error
}

// IncrementSoldCount adds one completed sale and returns the rows touched.
func (r *Repository) IncrementSoldCount(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("sold_count", gorm.Expr("sold_count + 1"))
	return res.RowsAffected, res.Error
}

// CountPurchases returns how many purchases reference the listing.
func (r *Repository) CountPurchases(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&models.Purchase{}).Where("listing_id = ?", id).Count(&n).Error
	return n, err
}

// DeleteCascade removes the listing together with its mapping and wishlist
// entries. Callers check CountPurchases first; purchase rows are never
// touched here.
func (r *Repository) DeleteCascade(ctx context.Context, id uuid.UUID) (mappingRemoved bool, wishlistRemoved int64, err error) {
	db := r.DB(ctx)
	mappingRes := db.Where("listing_id = ?", id).Delete(&models.EntitlementMapping{})
	if mappingRes.Error != nil {
		return false, 0, mappingRes.Error
	}
	wishRes := db.Where("listing_id = ?", id).Delete(&models.WishlistEntry{})
	if wishRes.Error != nil {
		return false, 0, wishRes.Error
	}
	listingRes := db.Where("id = ?", id).Delete(&models.Listing{})
	if listingRes.Error != nil {
		return false, 0, listingRes.Error
	}
	if listingRes.RowsAffected == 0 {
		return false, 0, gorm.ErrRecordNotFound
	}
	return mappingRes.RowsAffected > 0, wishRes.RowsAffected, nil
}

// SoldCountDrift is a listing whose counter disagrees with its purchases.
type SoldCountDrift struct {
	ListingID uuid.UUID
	SoldCount int64
	Purchases int64
}

// FindSoldCountDrift compares every listing's counter with the number of
// purchases recorded against it.
func (r *Repository) FindSoldCountDrift(ctx context.Context) ([]SoldCountDrift, error) {
	var rows []SoldCountDrift
	err := r.DB(ctx).Raw(`
SELECT l.id AS listing_id, l.sold_count AS sold_count, COUNT(p.id) AS purchases
FROM listings l
LEFT JOIN purchases p ON p.listing_id = l.id
GROUP BY l.id, l.sold_count
HAVING l.sold_count <> COUNT(p.id)`).Scan(&rows).Error
	return rows, err
}

// SetSoldCount overwrites the counter when it still holds the expected value.
func (r *Repository) SetSoldCount(ctx context.Context, id uuid.UUID, expected, value int64) (int64, error) {
	res := r.DB(ctx).Model(&models.Listing{}).
		Where("id = ? AND sold_count = ?", id, expected).
		UpdateColumn("sold_count", value)
	return res.RowsAffected, res.Error
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}
