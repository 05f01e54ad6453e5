package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/repo"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
)

// Repository exposes user persistence.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// UpsertParams describes a sign-in for UpsertByEmail.
type UpsertParams struct {
	Email   string
	Name    string
	Picture *string
	Role    enums.UserRole
	LoginAt time.Time
}

// UpsertByEmail inserts the user on first sign-in and otherwise refreshes the
// login timestamp and role. The unique email index arbitrates concurrent
// first sign-ins, so the row read back is always the first one created.
func (r *Repository) UpsertByEmail(ctx context.Context, params UpsertParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	loginAt := params.LoginAt
	user := &models.User{
		Name:        params.Name,
		Email:       email,
		Picture:     params.Picture,
		Role:        params.Role,
		LastLoginAt: &loginAt,
	}
	err := r.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]any{
			"role":          params.Role,
			"last_login_at": loginAt,
			"updated_at":    loginAt,
		}),
	}).Create(user).Error
	if err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, email)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
