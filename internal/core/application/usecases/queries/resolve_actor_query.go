package queries

import (
	"context"
	"errors"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/ports"
	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// ResolveActorQueryHandler turns an authenticated identity into an actor. Drivers
// are bound to their driver profile when they have one.
type ResolveActorQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

func NewResolveActorQueryHandler(uowFactory ports.UnitOfWorkFactory) ResolveActorQueryHandler {
	return ResolveActorQueryHandler{uowFactory: uowFactory}
}

func (h ResolveActorQueryHandler) Handle(ctx context.Context, userID kernel.UUID, role kernel.Role) (kernel.Actor, error) {
	actor, err := kernel.NewActor(userID, role)
	if err != nil {
		return kernel.Actor{}, err
	}
	if role != kernel.RoleDriver {
		return actor, nil
	}

	drv, err := h.uowFactory.Create().DriverRepository().GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return actor, nil
	case err != nil:
		return kernel.Actor{}, err
	default:
		return actor.WithDriver(drv.ID()), nil
	}
}
