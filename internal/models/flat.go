package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type FlatStatus string

const (
	StatusVacant        FlatStatus = "vacant"
	StatusOwnerOccupied FlatStatus = "owner"
	StatusRented        FlatStatus = "rented"
)

const (
	MinFloor = 1
	MaxFloor = 14
	Units    = "ABCDEFGH"
)

// Label returns the display name of the status.
func (s FlatStatus) Label() string {
	switch s {
	case StatusOwnerOccupied:
		return "Owner-occupied"
	case StatusRented:
		return "Rented"
	case StatusVacant:
		return "Vacant"
	}
	return string(s)
}

func (s FlatStatus) Valid() bool {
	return s == StatusVacant || s == StatusOwnerOccupied || s == StatusRented
}

// DeriveStatus is the single occupancy rule: an active tenancy wins over an
// active ownership, and a flat with neither is vacant.
func DeriveStatus(hasActiveOwnership, hasActiveTenancy bool) FlatStatus {
	switch {
	case hasActiveTenancy:
		return StatusRented
	case hasActiveOwnership:
		return StatusOwnerOccupied
	default:
		return StatusVacant
	}
}

type Flat struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Unit      string     `json:"unit" db:"unit"`
	Floor     int        `json:"floor" db:"floor"`
	Remarks   string     `json:"remarks" db:"remarks"`
	Status    FlatStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Code renders the flat as "E-10".
func (f *Flat) Code() string {
	return FlatCode(f.Unit, f.Floor)
}

func FlatCode(unit string, floor int) string {
	return fmt.Sprintf("%s-%02d", unit, floor)
}

// FlatKey identifies a flat by position rather than id.
type FlatKey struct {
	Unit  string
	Floor int
}

func (k FlatKey) String() string {
	return FlatCode(k.Unit, k.Floor)
}

func (f *Flat) Key() FlatKey {
	return FlatKey{Unit: f.Unit, Floor: f.Floor}
}

// FlatFilter holds list-page filters. Query matches a floor number when
// numeric, otherwise a unit letter or remarks substring.
type FlatFilter struct {
	Query  string
	Status FlatStatus
	Floor  int
	Limit  int
	Offset int
}

// FlatOccupancy is the detail view of a flat with its current and past
// assignments.
type FlatOccupancy struct {
	Flat            *Flat              `json:"flat"`
	ActiveOwnership *Tenure            `json:"active_ownership,omitempty"`
	CurrentOwner    *Person            `json:"current_owner,omitempty"`
	ActiveTenancy   *Tenure            `json:"active_tenancy,omitempty"`
	CurrentLessee   *Person            `json:"current_lessee,omitempty"`
	ParkingSpot     *ParkingSpot       `json:"parking_spot,omitempty"`
	ActiveParking   *ParkingAssignment `json:"active_parking,omitempty"`
	Ownerships      []*Tenure          `json:"ownerships"`
	Tenancies       []*Tenure          `json:"tenancies"`
	DerivedStatus   FlatStatus         `json:"derived_status"`
}

// OccupantLabel mirrors what the list page shows for a flat.
func (o *FlatOccupancy) OccupantLabel() string {
	if o.Flat.Status == StatusOwnerOccupied && o.CurrentOwner != nil {
		return "Owner: " + o.CurrentOwner.Name
	}
	if o.Flat.Status == StatusRented && o.CurrentLessee != nil {
		return "Lessee: " + o.CurrentLessee.Name
	}
	return "-"
}
