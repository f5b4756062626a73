package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Repository exposes user-related persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
	UpdateFarmLocation(ctx context.Context, id uuid.UUID, loc types.Location) error
	UpdateTransporterArea(ctx context.Context, id uuid.UUID, loc *types.Location, districts types.StringList) error
	UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int64) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user by their UUID.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads every listed user keyed by id; unknown ids are absent from the map.
func (r *repositoryImpl) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

func (r *repositoryImpl) UpdateFarmLocation(ctx context.Context, id uuid.UUID, loc types.Location) error {
	return r.updateColumns(ctx, id, map[string]any{
		"farm_location": loc,
	})
}

func (r *repositoryImpl) UpdateTransporterArea(ctx context.Context, id uuid.UUID, loc *types.Location, districts types.StringList) error {
	updates := map[string]any{}
	if loc != nil {
		updates["base_location"] = *loc
	}
	if districts != nil {
		updates["service_districts"] = districts
	}
	if len(updates) == 0 {
		return nil
	}
	return r.updateColumns(ctx, id, updates)
}

// UpdateRating overwrites the aggregate rating columns.
func (r *repositoryImpl) UpdateRating(ctx context.Context, id uuid.UUID, average float64, count int64) error {
	return r.updateColumns(ctx, id, map[string]any{
		"rating_average": average,
		"rating_count":   count,
	})
}

func (r *repositoryImpl) updateColumns(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
