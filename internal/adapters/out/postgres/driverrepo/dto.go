// Package driverrepo persists driver profiles and presence.
package driverrepo

import (
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/driver"
	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

type DriverDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	VehicleType   string    `gorm:"size:32"`
	CapacityKg    float64   `gorm:"not null"`
	IsOnline      bool      `gorm:"index;not null;default:false"`
	IsActive      bool      `gorm:"not null;default:true"`
	ManualOffline bool      `gorm:"not null;default:false"`
	Lng           *float64
	Lat           *float64
	LastSeenAt    time.Time `gorm:"index"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	Version       int       `gorm:"not null;default:0"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

func fromDomain(d *driver.Driver) DriverDTO {
	s := d.Snapshot()
	dto := DriverDTO{
		ID:            s.ID.Bytes(),
		UserID:        s.UserID.Bytes(),
		VehicleType:   string(s.VehicleType),
		CapacityKg:    s.CapacityKg,
		IsOnline:      s.IsOnline,
		IsActive:      s.IsActive,
		ManualOffline: s.ManualOffline,
		LastSeenAt:    s.LastSeenAt,
		CreatedAt:     s.CreatedAt,
		Version:       s.Version,
	}
	if s.Location != nil {
		lng, lat := s.Location.Lng(), s.Location.Lat()
		dto.Lng = &lng
		dto.Lat = &lat
	}
	return dto
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	s := driver.Snapshot{
		ID:            kernel.UUIDFromGoogle(dto.ID),
		UserID:        kernel.UUIDFromGoogle(dto.UserID),
		VehicleType:   kernel.VehicleType(dto.VehicleType),
		CapacityKg:    dto.CapacityKg,
		IsOnline:      dto.IsOnline,
		IsActive:      dto.IsActive,
		ManualOffline: dto.ManualOffline,
		LastSeenAt:    dto.LastSeenAt.UTC(),
		CreatedAt:     dto.CreatedAt.UTC(),
		Version:       dto.Version,
	}
	if dto.Lng != nil && dto.Lat != nil {
		p, err := kernel.NewGeoPoint(*dto.Lng, *dto.Lat)
		if err != nil {
			return nil, err
		}
		s.Location = &p
	}
	return driver.RestoreDriver(s)
}
