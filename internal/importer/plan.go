package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
)

// ConflictPolicy decides what happens to a row that targets a flat an
// earlier row of the same paste already gave to a different owner.
type ConflictPolicy string

const (
	// LastWins ends the earlier row's ownership and opens the later one.
	LastWins ConflictPolicy = "last_wins"
	// SkipRow keeps the earlier row and counts the later one as skipped.
	SkipRow ConflictPolicy = "skip_row"
	// Abort fails the whole import with models.ErrImportConflict.
	Abort ConflictPolicy = "abort"
)

func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case LastWins, SkipRow, Abort:
		return p, nil
	case "":
		return LastWins, nil
	}
	return "", models.NewValidationError("on_conflict", "must be last_wins, skip_row or abort")
}

type EffectKind string

const (
	CreateOwner      EffectKind = "create_owner"
	UpdateOwnerPhone EffectKind = "update_owner_phone"
	EndOwnership     EffectKind = "end_ownership"
	CreateOwnership  EffectKind = "create_ownership"
	SetStatus        EffectKind = "set_status"
)

// Effect is one write the import performs. Ids of rows it creates are
// chosen at plan time.
type Effect struct {
	Kind     EffectKind        `json:"kind"`
	Line     int               `json:"line,omitempty"`
	FlatID   uuid.UUID         `json:"flat_id,omitzero"`
	Flat     string            `json:"flat,omitempty"`
	OwnerID  uuid.UUID         `json:"owner_id,omitzero"`
	Name     string            `json:"name,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	TenureID uuid.UUID         `json:"tenure_id,omitzero"`
	Date     time.Time         `json:"date,omitzero"`
	Status   models.FlatStatus `json:"status,omitempty"`
}

type Counters struct {
	OwnersCreated     int `json:"owners_created"`
	OwnersUpdated     int `json:"owners_updated"`
	OwnershipsCreated int `json:"ownerships_created"`
	OwnershipsEnded   int `json:"ownerships_ended"`
	StatusChanged     int `json:"status_changed"`
	Skipped           int `json:"skipped"`
	Conflicts         int `json:"conflicts"`
}

func (c *Counters) add(kind EffectKind) {
	switch kind {
	case CreateOwner:
		c.OwnersCreated++
	case UpdateOwnerPhone:
		c.OwnersUpdated++
	case EndOwnership:
		c.OwnershipsEnded++
	case CreateOwnership:
		c.OwnershipsCreated++
	case SetStatus:
		c.StatusChanged++
	}
}

type Options struct {
	StartDate     time.Time
	VacateMissing bool
	OnConflict    ConflictPolicy
}

// Plan is the ordered list of writes an import would perform.
type Plan struct {
	Effects  []Effect `json:"effects"`
	Counters Counters `json:"counters"`
}

type ownerCandidate struct {
	id    uuid.UUID
	name  string
	phone string
}

type openOwnership struct {
	id      uuid.UUID
	ownerID uuid.UUID
	start   time.Time
}

type touch struct {
	ownerID uuid.UUID
	line    int
}

// planner simulates the import over a read snapshot of the store.
type planner struct {
	repos     *repositories.Repositories
	opts      Options
	plan      *Plan
	flats     map[models.FlatKey]*models.Flat
	order     []*models.Flat
	status    map[uuid.UUID]models.FlatStatus
	ownership map[uuid.UUID]*openOwnership
	rented    map[uuid.UUID]bool
	owners    map[string][]*ownerCandidate
	touched   map[uuid.UUID]touch
}

// BuildPlan computes every effect of importing rows without writing. repos
// may be bound to the pool for a preview or to the transaction that will
// execute the plan.
func BuildPlan(ctx context.Context, repos *repositories.Repositories, parsed ParseResult, opts Options) (*Plan, error) {
	p := &planner{
		repos:     repos,
		opts:      opts,
		plan:      &Plan{},
		flats:     map[models.FlatKey]*models.Flat{},
		status:    map[uuid.UUID]models.FlatStatus{},
		ownership: map[uuid.UUID]*openOwnership{},
		rented:    map[uuid.UUID]bool{},
		owners:    map[string][]*ownerCandidate{},
		touched:   map[uuid.UUID]touch{},
	}
	p.opts.StartDate = models.DateOnly(opts.StartDate)
	if p.opts.OnConflict == "" {
		p.opts.OnConflict = LastWins
	}
	if err := p.load(ctx); err != nil {
		return nil, err
	}

	p.plan.Counters.Skipped = parsed.Skipped
	for _, row := range parsed.Rows {
		if err := p.row(ctx, row); err != nil {
			return nil, err
		}
	}
	if p.opts.VacateMissing {
		p.vacate()
	}
	return p.plan, nil
}

func (p *planner) load(ctx context.Context) error {
	flats, err := p.repos.Flats.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, f := range flats {
		p.flats[f.Key()] = f
		p.status[f.ID] = f.Status
	}
	p.order = flats

	owned, err := p.repos.Ownerships.ListActive(ctx)
	if err != nil {
		return err
	}
	// ListActive is newest first per flat; keep the first seen.
	for _, t := range owned {
		if _, ok := p.ownership[t.FlatID]; !ok {
			p.ownership[t.FlatID] = &openOwnership{id: t.ID, ownerID: t.PartyID, start: t.StartDate}
		}
	}

	rented, err := p.repos.Tenancies.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, t := range rented {
		p.rented[t.FlatID] = true
	}
	return nil
}

func (p *planner) emit(e Effect) {
	p.plan.Effects = append(p.plan.Effects, e)
	p.plan.Counters.add(e.Kind)
}

func (p *planner) candidates(ctx context.Context, name string) ([]*ownerCandidate, error) {
	key := strings.ToLower(name)
	if list, ok := p.owners[key]; ok {
		return list, nil
	}
	found, err := p.repos.Owners.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	list := make([]*ownerCandidate, 0, len(found))
	for _, o := range found {
		list = append(list, &ownerCandidate{id: o.ID, name: o.Name, phone: o.Phone})
	}
	p.owners[key] = list
	return list, nil
}

// resolveOwner prefers a name match whose phone contains the row's digits,
// then the first name match. A nil result means the owner must be created.
func (p *planner) resolveOwner(ctx context.Context, row Row) (*ownerCandidate, error) {
	list, err := p.candidates(ctx, row.OwnerName)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	if row.Phone != "" {
		for _, c := range list {
			if strings.Contains(models.NormalizePhone(c.phone), row.Phone) {
				return c, nil
			}
		}
	}
	return list[0], nil
}

func (p *planner) row(ctx context.Context, row Row) error {
	flat, ok := p.flats[row.Flat]
	if !ok {
		p.plan.Counters.Skipped++
		return nil
	}

	owner, err := p.resolveOwner(ctx, row)
	if err != nil {
		return err
	}

	if prev, seen := p.touched[flat.ID]; seen && (owner == nil || prev.ownerID != owner.id) {
		p.plan.Counters.Conflicts++
		switch p.opts.OnConflict {
		case Abort:
			return fmt.Errorf("%w: %s on line %d was already assigned on line %d",
				models.ErrImportConflict, flat.Code(), row.Line, prev.line)
		case SkipRow:
			p.plan.Counters.Skipped++
			return nil
		}
	}

	active := p.ownership[flat.ID]
	if active != nil && owner != nil && active.ownerID == owner.id {
		active = nil
	} else if active != nil && active.start.After(p.opts.StartDate) {
		// A newer ownership cannot be superseded as of an earlier date. The
		// flat still counts as named by the paste.
		p.plan.Counters.Skipped++
		p.touched[flat.ID] = touch{ownerID: active.ownerID, line: row.Line}
		return nil
	}

	if owner == nil {
		owner = &ownerCandidate{id: uuid.New(), name: row.OwnerName, phone: row.Phone}
		key := strings.ToLower(row.OwnerName)
		p.owners[key] = append(p.owners[key], owner)
		p.emit(Effect{Kind: CreateOwner, Line: row.Line, OwnerID: owner.id, Name: owner.name, Phone: owner.phone})
	} else if row.Phone != "" && row.Phone != owner.phone {
		owner.phone = row.Phone
		p.emit(Effect{Kind: UpdateOwnerPhone, Line: row.Line, OwnerID: owner.id, Name: owner.name, Phone: row.Phone})
	}

	if active != nil {
		p.emit(Effect{Kind: EndOwnership, Line: row.Line, FlatID: flat.ID, Flat: flat.Code(),
			OwnerID: active.ownerID, TenureID: active.id, Date: p.opts.StartDate})
		delete(p.ownership, flat.ID)
	}
	if _, open := p.ownership[flat.ID]; !open {
		tenureID := uuid.New()
		p.emit(Effect{Kind: CreateOwnership, Line: row.Line, FlatID: flat.ID, Flat: flat.Code(),
			OwnerID: owner.id, TenureID: tenureID, Date: p.opts.StartDate})
		p.ownership[flat.ID] = &openOwnership{id: tenureID, ownerID: owner.id, start: p.opts.StartDate}
	}

	p.setStatus(flat, row.Line)
	p.touched[flat.ID] = touch{ownerID: owner.id, line: row.Line}
	return nil
}

func (p *planner) setStatus(flat *models.Flat, line int) {
	derived := models.DeriveStatus(p.ownership[flat.ID] != nil, p.rented[flat.ID])
	if derived == p.status[flat.ID] {
		return
	}
	p.status[flat.ID] = derived
	p.emit(Effect{Kind: SetStatus, Line: line, FlatID: flat.ID, Flat: flat.Code(), Status: derived})
}

// vacate ends the ownership of every untouched flat. An ownership that
// starts after the import date ends on its own start date.
func (p *planner) vacate() {
	for _, flat := range p.order {
		if _, ok := p.touched[flat.ID]; ok {
			continue
		}
		if active := p.ownership[flat.ID]; active != nil {
			end := p.opts.StartDate
			if active.start.After(end) {
				end = active.start
			}
			p.emit(Effect{Kind: EndOwnership, FlatID: flat.ID, Flat: flat.Code(),
				OwnerID: active.ownerID, TenureID: active.id, Date: end})
			delete(p.ownership, flat.ID)
		}
		p.setStatus(flat, 0)
	}
}
