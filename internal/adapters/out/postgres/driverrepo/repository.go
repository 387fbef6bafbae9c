package driverrepo

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/adapters/out/postgres/pgerrs"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDriverRepository implements DriverRepository using GORM.
type GormDriverRepository struct {
	db *gorm.DB
}

func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// Add stores a new driver. A second profile for the same user is a conflict.
func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerrs.Translate(err, "driver", aggregate.ID().String())
	}
	return nil
}

// Update writes the driver only if the stored version still matches and bumps it,
// so a heartbeat loaded before an admin change cannot undo that change.
func (r *GormDriverRepository) Update(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	next := dto
	next.Version = dto.Version + 1

	result := r.db.WithContext(ctx).Model(&next).
		Where("version = ?", dto.Version).
		Select("*").Omit("id", "user_id", "created_at").
		Updates(&next)
	if result.Error != nil {
		return pgerrs.Translate(result.Error, "driver", aggregate.ID().String())
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, aggregate)
	}

	aggregate.SetVersion(next.Version)
	return nil
}

func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		return nil, pgerrs.Translate(err, "driver", id.String())
	}
	return toDomain(dto)
}

func (r *GormDriverRepository) GetByUserID(ctx context.Context, userID kernel.UUID) (*driver.Driver, error) {
	if err := userID.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "user_id = ?", userID.Bytes()).Error; err != nil {
		return nil, pgerrs.Translate(err, "driver.userId", userID.String())
	}
	return toDomain(dto)
}

func (r *GormDriverRepository) List(ctx context.Context) ([]*driver.Driver, error) {
	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, nil
}

// MarkStaleOffline is a single conditional UPDATE, so a heartbeat that lands
// concurrently is never overwritten.
func (r *GormDriverRepository) MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]kernel.UUID, error) {
	var swept []DriverDTO
	err := r.db.WithContext(ctx).
		Model(&swept).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("is_online = ? AND last_seen_at < ?", true, cutoff).
		Updates(map[string]any{"is_online": false, "version": gorm.Expr("version + 1")}).Error
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(swept))
	for _, dto := range swept {
		ids = append(ids, kernel.UUIDFromGoogle(dto.ID))
	}
	return ids, nil
}

func (r *GormDriverRepository) missingOrStale(ctx context.Context, aggregate *driver.Driver) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&DriverDTO{}).Where("id = ?", aggregate.ID().Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("driver", aggregate.ID().String())
	}
	return errs.NewConflictError("driver", aggregate.ID().String(), aggregate.Version())
}
