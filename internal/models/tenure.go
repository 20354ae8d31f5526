package models

import (
	"time"

	"github.com/google/uuid"
)

// Interval is a span of responsibility. A nil EndDate means the interval is
// still in effect.
type Interval struct {
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" db:"end_date"`
}

func (i Interval) IsActive() bool {
	return i.EndDate == nil
}

// Close sets the end date. Closing an ended interval or closing before the
// start date is rejected.
func (i *Interval) Close(end time.Time) error {
	if i.EndDate != nil {
		return ErrIntervalEnded
	}
	end = DateOnly(end)
	if end.Before(DateOnly(i.StartDate)) {
		return ErrInvalidInterval
	}
	i.EndDate = &end
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type TenureKind string

const (
	TenureOwnership TenureKind = "ownership"
	TenureTenancy   TenureKind = "tenancy"
)

// Tenure links a flat to a person for an interval. PartyID is the owner id
// for an ownership and the lessee id for a tenancy.
type Tenure struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Kind      TenureKind `json:"kind" db:"-"`
	FlatID    uuid.UUID  `json:"flat_id" db:"flat_id"`
	PartyID   uuid.UUID  `json:"party_id" db:"party_id"`
	Interval
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func NewTenure(kind TenureKind, flatID, partyID uuid.UUID, start time.Time) *Tenure {
	return &Tenure{
		ID:       uuid.New(),
		Kind:     kind,
		FlatID:   flatID,
		PartyID:  partyID,
		Interval: Interval{StartDate: DateOnly(start)},
	}
}
