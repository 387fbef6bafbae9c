// Package orderrepo persists order aggregates. An order is one row in orders plus
// its append-only status history and proofs.
package orderrepo

import (
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the orders row. Status is denormalized from the last history entry
// so that listings can filter without a join.
type OrderDTO struct {
	ID               uuid.UUID             `gorm:"type:uuid;primaryKey"`
	CustomerID       uuid.UUID             `gorm:"type:uuid;index;not null"`
	DriverID         *uuid.UUID            `gorm:"type:uuid;index"`
	VehicleType      string                `gorm:"size:32"`
	From             EndpointDTO           `gorm:"embedded;embeddedPrefix:from_"`
	To               EndpointDTO           `gorm:"embedded;embeddedPrefix:to_"`
	DistanceKm       float64               `gorm:"not null"`
	Price            float64               `gorm:"not null"`
	WeightKg         float64               `gorm:"not null;default:0"`
	ActualDistanceKm *float64
	Fare             *kernel.FareBreakdown `gorm:"serializer:json;type:jsonb"`
	Status           int                   `gorm:"index;not null"`
	RatingScore      *int
	RatingReview     string
	RatedAt          *time.Time
	CreatedAt        time.Time             `gorm:"index;autoCreateTime:false"`
	Version          int                   `gorm:"not null;default:0"`
	History          []HistoryDTO          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Proofs           []ProofDTO            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type EndpointDTO struct {
	Address string
	Lng     *float64
	Lat     *float64
}

type HistoryDTO struct {
	OrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq     int       `gorm:"primaryKey;autoIncrement:false"`
	Status  int       `gorm:"not null"`
	At      time.Time `gorm:"not null"`
	ByID    uuid.UUID `gorm:"type:uuid"`
	Role    string    `gorm:"size:16"`
	Note    string
}

func (HistoryDTO) TableName() string {
	return "order_status_history"
}

type ProofDTO struct {
	OrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq     int       `gorm:"primaryKey;autoIncrement:false"`
	URL     string    `gorm:"not null"`
	Kind    string    `gorm:"size:16"`
	ByID    uuid.UUID `gorm:"type:uuid"`
	Note    string
	At      time.Time `gorm:"not null"`
}

func (ProofDTO) TableName() string {
	return "order_proofs"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()
	id := s.ID.Bytes()

	dto := OrderDTO{
		ID:               id,
		CustomerID:       s.CustomerID.Bytes(),
		VehicleType:      string(s.Details.VehicleType),
		From:             endpointFromDomain(s.Details.From),
		To:               endpointFromDomain(s.Details.To),
		DistanceKm:       s.Details.DistanceKm,
		Price:            s.Details.Price,
		WeightKg:         s.Details.WeightKg,
		ActualDistanceKm: s.ActualDistanceKm,
		Fare:             s.Fare,
		Status:           int(o.Status()),
		CreatedAt:        s.CreatedAt,
		Version:          s.Version,
	}
	if s.DriverID != nil {
		driverID := s.DriverID.Bytes()
		dto.DriverID = &driverID
	}
	if s.Rating != nil {
		score, at := s.Rating.Score(), s.Rating.At()
		dto.RatingScore = &score
		dto.RatingReview = s.Rating.Review()
		dto.RatedAt = &at
	}

	dto.History = make([]HistoryDTO, 0, len(s.History))
	for i, h := range s.History {
		dto.History = append(dto.History, HistoryDTO{
			OrderID: id,
			Seq:     i,
			Status:  int(h.Status()),
			At:      h.At(),
			ByID:    h.By().Bytes(),
			Role:    string(h.Role()),
			Note:    h.Note(),
		})
	}

	dto.Proofs = make([]ProofDTO, 0, len(s.Proofs))
	for i, p := range s.Proofs {
		dto.Proofs = append(dto.Proofs, ProofDTO{
			OrderID: id,
			Seq:     i,
			URL:     p.URL(),
			Kind:    string(p.Kind()),
			ByID:    p.By().Bytes(),
			Note:    p.Note(),
			At:      p.At(),
		})
	}
	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	from, err := endpointToDomain("from", dto.From)
	if err != nil {
		return nil, err
	}
	to, err := endpointToDomain("to", dto.To)
	if err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:         kernel.UUIDFromGoogle(dto.ID),
		CustomerID: kernel.UUIDFromGoogle(dto.CustomerID),
		Details: order.Details{
			VehicleType: kernel.VehicleType(dto.VehicleType),
			From:        from,
			To:          to,
			DistanceKm:  dto.DistanceKm,
			Price:       dto.Price,
			WeightKg:    dto.WeightKg,
		},
		ActualDistanceKm: dto.ActualDistanceKm,
		Fare:             dto.Fare,
		CreatedAt:        dto.CreatedAt.UTC(),
		Version:          dto.Version,
	}
	if dto.DriverID != nil {
		driverID := kernel.UUIDFromGoogle(*dto.DriverID)
		s.DriverID = &driverID
	}
	if dto.RatingScore != nil {
		var at time.Time
		if dto.RatedAt != nil {
			at = dto.RatedAt.UTC()
		}
		rating := order.RestoreRating(*dto.RatingScore, dto.RatingReview, at)
		s.Rating = &rating
	}

	for _, h := range dto.History {
		s.History = append(s.History, order.RestoreHistoryEntry(
			order.Status(h.Status), h.At.UTC(), kernel.UUIDFromGoogle(h.ByID), kernel.Role(h.Role), h.Note,
		))
	}
	for _, p := range dto.Proofs {
		s.Proofs = append(s.Proofs, order.RestoreProof(
			p.URL, order.ProofKind(p.Kind), kernel.UUIDFromGoogle(p.ByID), p.Note, p.At.UTC(),
		))
	}

	return order.RestoreOrder(s)
}

func endpointFromDomain(e kernel.Endpoint) EndpointDTO {
	dto := EndpointDTO{Address: e.Address()}
	if p, ok := e.Point(); ok {
		lng, lat := p.Lng(), p.Lat()
		dto.Lng = &lng
		dto.Lat = &lat
	}
	return dto
}

func endpointToDomain(name string, dto EndpointDTO) (kernel.Endpoint, error) {
	if dto.Lng == nil || dto.Lat == nil {
		return kernel.NewEndpoint(name, dto.Address, nil)
	}
	p, err := kernel.NewGeoPoint(*dto.Lng, *dto.Lat)
	if err != nil {
		return kernel.Endpoint{}, err
	}
	return kernel.NewEndpoint(name, dto.Address, &p)
}
