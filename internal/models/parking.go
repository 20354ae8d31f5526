package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ParkingSpot struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Code       string     `json:"code" db:"code"`
	Level      int        `json:"level" db:"level"`
	IsReserved bool       `json:"is_reserved" db:"is_reserved"`
	Notes      string     `json:"notes" db:"notes"`
	FlatID     *uuid.UUID `json:"flat_id,omitempty" db:"flat_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

type VehicleType string

const (
	VehicleCar      VehicleType = "CAR"
	VehicleBike     VehicleType = "BIKE"
	VehicleMicrobus VehicleType = "MICROBUS"
	VehicleTruck    VehicleType = "TRUCK"
	VehicleOther    VehicleType = "OTHER"
)

type VehicleOwnerType string

const (
	VehicleOwnedByOwner         VehicleOwnerType = "OWNER"
	VehicleOwnedByLessee        VehicleOwnerType = "LESSEE"
	VehicleOwnedByUberDriver    VehicleOwnerType = "UBER_DRIVER"
	VehicleOwnedByRentalCompany VehicleOwnerType = "RENTAL_COMPANY"
)

// ExternalOwner describes a vehicle owner who is neither an owner nor a
// lessee of the building.
type ExternalOwner struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

type Vehicle struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	PlateNo       string           `json:"plate_no" db:"plate_no"`
	VehicleType   VehicleType      `json:"vehicle_type" db:"vehicle_type"`
	Make          string           `json:"make" db:"make"`
	Model         string           `json:"model" db:"model"`
	Color         string           `json:"color" db:"color"`
	TagNo         string           `json:"tag_no" db:"tag_no"`
	OwnerType     VehicleOwnerType `json:"owner_type" db:"owner_type"`
	OwnerID       *uuid.UUID       `json:"owner_id,omitempty" db:"owner_id"`
	LesseeID      *uuid.UUID       `json:"lessee_id,omitempty" db:"lessee_id"`
	ExternalOwner *ExternalOwner   `json:"external_owner,omitempty" db:"-"`
	FlatID        *uuid.UUID       `json:"flat_id,omitempty" db:"flat_id"`
	IsActive      bool             `json:"is_active" db:"is_active"`
	Notes         string           `json:"notes" db:"notes"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
}

// NormalizePlate upper-cases a plate number and strips spaces.
func NormalizePlate(plate string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(plate)), " ", "")
}

// Validate checks that exactly one owner reference is set and that it
// matches OwnerType.
func (v *Vehicle) Validate() error {
	if NormalizePlate(v.PlateNo) == "" {
		return NewValidationError("plate_no", "is required")
	}
	picks := 0
	if v.OwnerID != nil {
		picks++
	}
	if v.LesseeID != nil {
		picks++
	}
	if v.ExternalOwner != nil {
		picks++
	}
	if picks != 1 {
		return NewValidationError("owner", "select exactly one of owner, lessee or external owner")
	}
	switch v.OwnerType {
	case VehicleOwnedByOwner:
		if v.OwnerID == nil {
			return NewValidationError("owner_id", "is required when owner_type is OWNER")
		}
	case VehicleOwnedByLessee:
		if v.LesseeID == nil {
			return NewValidationError("lessee_id", "is required when owner_type is LESSEE")
		}
	case VehicleOwnedByUberDriver, VehicleOwnedByRentalCompany:
		if v.ExternalOwner == nil || strings.TrimSpace(v.ExternalOwner.Name) == "" {
			return NewValidationError("external_owner", "details are required for uber driver or rental company")
		}
	default:
		return NewValidationError("owner_type", "is not a known owner type")
	}
	return nil
}

// ParkingAssignment places a vehicle, or a bare plate number, on a spot for
// an interval.
type ParkingAssignment struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SpotID     uuid.UUID  `json:"spot_id" db:"spot_id"`
	VehicleID  *uuid.UUID `json:"vehicle_id,omitempty" db:"vehicle_id"`
	PlateNo    string     `json:"plate_no" db:"plate_no"`
	DriverName string     `json:"driver_name" db:"driver_name"`
	Remarks    string     `json:"remarks" db:"remarks"`
	Interval
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
