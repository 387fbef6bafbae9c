package ports

import (
	"context"
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
)

type DriverRepository interface {
	Add(ctx context.Context, aggregate *driver.Driver) error

	Update(ctx context.Context, aggregate *driver.Driver) error

	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	GetByUserID(ctx context.Context, userID kernel.UUID) (*driver.Driver, error)

	List(ctx context.Context) ([]*driver.Driver, error)

	// MarkStaleOffline flips every online driver not seen since cutoff to offline
	// in one conditional write and returns their ids.
	MarkStaleOffline(ctx context.Context, cutoff time.Time) ([]kernel.UUID, error)
}
