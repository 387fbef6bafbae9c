package kernel

import (
	"fmt"

	"github.com/bharathakku/delivery-backend/internal/pkg/errs"
)

// VehicleType is the closed set of vehicles a driver can operate.
type VehicleType string

const (
	VehicleUnknown      VehicleType = ""
	VehicleTwoWheeler   VehicleType = "two-wheeler"
	VehicleThreeWheeler VehicleType = "three-wheeler"
	VehicleHeavyTruck   VehicleType = "heavy-truck"
)

var vehicleTypes = []VehicleType{VehicleTwoWheeler, VehicleThreeWheeler, VehicleHeavyTruck}

func VehicleTypes() []VehicleType {
	return append([]VehicleType(nil), vehicleTypes...)
}

func ParseVehicleType(s string) (VehicleType, error) {
	v := VehicleType(s)
	if err := v.Validate(); err != nil {
		return VehicleUnknown, err
	}
	return v, nil
}

func (v VehicleType) Validate() error {
	for _, known := range vehicleTypes {
		if v == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("vehicleType", fmt.Errorf("%q is not a known vehicle type", string(v)))
}

func (v VehicleType) String() string {
	return string(v)
}
