package orderrepo

import (
	"context"

	"github.com/bharathakku/delivery-backend/internal/adapters/out/postgres/pgerrs"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var mutableColumns = []string{
	"driver_id", "actual_distance_km", "fare", "status",
	"rating_score", "rating_review", "rated_at", "version",
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add saves a new order with its first history entry.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerrs.Translate(err, "order", aggregate.ID().String())
	}
	return nil
}

// Update writes the order only if the stored version still matches and bumps it.
// History and proofs are append-only: rows already stored are left untouched.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	next := dto
	next.Version = dto.Version + 1
	next.History, next.Proofs = nil, nil

	result := db.Model(&next).
		Where("version = ?", dto.Version).
		Select(mutableColumns).
		Updates(&next)
	if result.Error != nil {
		return pgerrs.Translate(result.Error, "order", aggregate.ID().String())
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, aggregate)
	}

	if len(dto.History) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dto.History).Error; err != nil {
			return err
		}
	}
	if len(dto.Proofs) > 0 {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&dto.Proofs).Error; err != nil {
			return err
		}
	}

	aggregate.SetVersion(dto.Version + 1)
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.withChildren(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		return nil, pgerrs.Translate(err, "order", id.String())
	}
	return toDomain(dto)
}

func (r *GormOrderRepository) ListByStatus(ctx context.Context, statuses []order.Status, limit int) ([]*order.Order, error) {
	codes := make([]int, 0, len(statuses))
	for _, s := range statuses {
		codes = append(codes, int(s))
	}

	query := r.withChildren(ctx).Where("status IN ?", codes).Order("created_at, id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *GormOrderRepository) ListActiveByDriver(ctx context.Context, driverID kernel.UUID) ([]*order.Order, error) {
	active := make([]int, 0)
	for _, s := range order.Statuses() {
		if s.IsActive() {
			active = append(active, int(s))
		}
	}

	query := r.withChildren(ctx).
		Where("driver_id = ? AND status IN ?", driverID.Bytes(), active).
		Order("created_at, id")
	return r.find(query)
}

func (r *GormOrderRepository) ListByCustomer(ctx context.Context, customerID kernel.UUID, limit int) ([]*order.Order, error) {
	query := r.withChildren(ctx).
		Where("customer_id = ?", customerID.Bytes()).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *GormOrderRepository) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	query := r.withChildren(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.find(query)
}

func (r *GormOrderRepository) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Preload("Proofs", func(db *gorm.DB) *gorm.DB { return db.Order("seq") })
}

func (r *GormOrderRepository) find(query *gorm.DB) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *GormOrderRepository) missingOrStale(ctx context.Context, aggregate *order.Order) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", aggregate.ID().Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	return errs.NewConflictError("order", aggregate.ID().String(), aggregate.Version())
}
