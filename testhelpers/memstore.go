package testhelpers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
)

// MemStore is an in-memory repositories.Store. It enforces the same unique
// and partial-unique rules as the schema and discards every write of a
// transaction whose function returns an error.
type MemStore struct {
	mu      sync.Mutex
	state   *memState
	faults  map[string]error
	txCount int
	now     func() time.Time
}

type memState struct {
	seq         int
	order       map[uuid.UUID]int
	flats       map[uuid.UUID]models.Flat
	people      map[models.PersonKind]map[uuid.UUID]models.Person
	tenures     map[models.TenureKind]map[uuid.UUID]models.Tenure
	spots       map[uuid.UUID]models.ParkingSpot
	vehicles    map[uuid.UUID]models.Vehicle
	assignments map[uuid.UUID]models.ParkingAssignment
	categories  map[uuid.UUID]models.ServiceCategory
	providers   map[uuid.UUID]models.ServiceProvider
}

func newMemState() *memState {
	return &memState{
		order: map[uuid.UUID]int{},
		flats: map[uuid.UUID]models.Flat{},
		people: map[models.PersonKind]map[uuid.UUID]models.Person{
			models.PersonOwner:  {},
			models.PersonLessee: {},
		},
		tenures: map[models.TenureKind]map[uuid.UUID]models.Tenure{
			models.TenureOwnership: {},
			models.TenureTenancy:   {},
		},
		spots:       map[uuid.UUID]models.ParkingSpot{},
		vehicles:    map[uuid.UUID]models.Vehicle{},
		assignments: map[uuid.UUID]models.ParkingAssignment{},
		categories:  map[uuid.UUID]models.ServiceCategory{},
		providers:   map[uuid.UUID]models.ServiceProvider{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *memState) clone() *memState {
	c := &memState{
		seq:         st.seq,
		order:       copyMap(st.order),
		flats:       copyMap(st.flats),
		people:      map[models.PersonKind]map[uuid.UUID]models.Person{},
		tenures:     map[models.TenureKind]map[uuid.UUID]models.Tenure{},
		spots:       copyMap(st.spots),
		vehicles:    copyMap(st.vehicles),
		assignments: copyMap(st.assignments),
		categories:  copyMap(st.categories),
		providers:   copyMap(st.providers),
	}
	for k, m := range st.people {
		c.people[k] = copyMap(m)
	}
	for k, m := range st.tenures {
		c.tenures[k] = copyMap(m)
	}
	return c
}

func (st *memState) stamp(id uuid.UUID) {
	st.seq++
	st.order[id] = st.seq
}

func NewMemStore() *MemStore {
	return &MemStore{
		state:  newMemState(),
		faults: map[string]error{},
		now:    time.Now,
	}
}

// FailOn makes the next call of op ("tenancies.Create", "flats.UpdateStatus",
// ...) return err.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// TxCount reports how many transactions were opened.
func (s *MemStore) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

func (s *MemStore) Repos() *repositories.Repositories {
	return s.repos(false)
}

func (s *MemStore) InTx(ctx context.Context, fn func(ctx context.Context, repos *repositories.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++
	snapshot := s.state.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *MemStore) repos(inTx bool) *repositories.Repositories {
	b := memBase{s: s, inTx: inTx}
	return &repositories.Repositories{
		Flats:      &memFlats{b},
		Owners:     &memPeople{b, models.PersonOwner, "owners"},
		Lessees:    &memPeople{b, models.PersonLessee, "lessees"},
		Ownerships: &memTenures{b, models.TenureOwnership, "ownerships", "one_active_ownership_per_flat"},
		Tenancies:  &memTenures{b, models.TenureTenancy, "tenancies", "one_active_tenancy_per_flat"},
		Spots:      &memSpots{b},
		Vehicles:   &memVehicles{b},
		Parking:    &memAssignments{b},
		Categories: &memCategories{b},
		Providers:  &memProviders{b},
	}
}

type memBase struct {
	s    *MemStore
	inTx bool
}

// run holds the store lock for one repository call unless the call is part
// of a transaction that already holds it.
func (b memBase) run(op string, fn func(st *memState) error) error {
	if !b.inTx {
		b.s.mu.Lock()
		defer b.s.mu.Unlock()
	}
	if err, ok := b.s.faults[op]; ok {
		delete(b.s.faults, op)
		return err
	}
	return fn(b.s.state)
}

func (b memBase) now() time.Time {
	return b.s.now()
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w (%s)", models.ErrDuplicate, constraint)
}

func activeConflict(constraint string) error {
	return fmt.Errorf("%w (%s)", models.ErrActiveIntervalConflict, constraint)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func endInterval(iv *models.Interval, end time.Time) error {
	if iv.EndDate != nil {
		return models.ErrIntervalEnded
	}
	end = models.DateOnly(end)
	if end.Before(iv.StartDate) {
		return fmt.Errorf("%w (dates_check)", models.ErrInvalidInterval)
	}
	iv.EndDate = &end
	return nil
}

type memFlats struct{ memBase }

func (r *memFlats) positionTaken(st *memState, f *models.Flat) bool {
	for id, other := range st.flats {
		if id != f.ID && other.Unit == f.Unit && other.Floor == f.Floor {
			return true
		}
	}
	return false
}

func (r *memFlats) Create(ctx context.Context, flat *models.Flat) error {
	return r.run("flats.Create", func(st *memState) error {
		if _, ok := st.flats[flat.ID]; ok || r.positionTaken(st, flat) {
			return duplicate("flats_floor_unit_key")
		}
		f := *flat
		f.CreatedAt, f.UpdatedAt = r.now(), r.now()
		st.flats[f.ID] = f
		st.stamp(f.ID)
		return nil
	})
}

func (r *memFlats) GetByID(ctx context.Context, id uuid.UUID) (*models.Flat, error) {
	var out *models.Flat
	err := r.run("flats.GetByID", func(st *memState) error {
		f, ok := st.flats[id]
		if !ok {
			return models.ErrNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

func (r *memFlats) GetByKey(ctx context.Context, unit string, floor int) (*models.Flat, error) {
	var out *models.Flat
	err := r.run("flats.GetByKey", func(st *memState) error {
		for _, f := range st.flats {
			if f.Unit == unit && f.Floor == floor {
				f := f
				out = &f
				return nil
			}
		}
		return models.ErrNotFound
	})
	return out, err
}

func (r *memFlats) Update(ctx context.Context, flat *models.Flat) error {
	return r.run("flats.Update", func(st *memState) error {
		old, ok := st.flats[flat.ID]
		if !ok {
			return models.ErrNotFound
		}
		if r.positionTaken(st, flat) {
			return duplicate("flats_floor_unit_key")
		}
		f := *flat
		f.CreatedAt, f.UpdatedAt = old.CreatedAt, r.now()
		st.flats[f.ID] = f
		return nil
	})
}

func (r *memFlats) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FlatStatus) error {
	return r.run("flats.UpdateStatus", func(st *memState) error {
		f, ok := st.flats[id]
		if !ok {
			return models.ErrNotFound
		}
		f.Status, f.UpdatedAt = status, r.now()
		st.flats[id] = f
		return nil
	})
}

func (r *memFlats) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run("flats.Delete", func(st *memState) error {
		if _, ok := st.flats[id]; !ok {
			return models.ErrNotFound
		}
		delete(st.flats, id)
		for _, m := range st.tenures {
			for tid, t := range m {
				if t.FlatID == id {
					delete(m, tid)
				}
			}
		}
		for sid, sp := range st.spots {
			if sp.FlatID != nil && *sp.FlatID == id {
				sp.FlatID = nil
				st.spots[sid] = sp
			}
		}
		for vid, v := range st.vehicles {
			if v.FlatID != nil && *v.FlatID == id {
				v.FlatID = nil
				st.vehicles[vid] = v
			}
		}
		return nil
	})
}

func (r *memFlats) sorted(st *memState, keep func(models.Flat) bool) []*models.Flat {
	var out []*models.Flat
	for _, f := range st.flats {
		if keep(f) {
			f := f
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Floor != out[j].Floor {
			return out[i].Floor < out[j].Floor
		}
		return out[i].Unit < out[j].Unit
	})
	return out
}

func (r *memFlats) List(ctx context.Context, filter models.FlatFilter) ([]*models.Flat, error) {
	var out []*models.Flat
	err := r.run("flats.List", func(st *memState) error {
		q := strings.TrimSpace(filter.Query)
		n, numErr := strconv.Atoi(q)
		out = r.sorted(st, func(f models.Flat) bool {
			if q != "" {
				if numErr == nil {
					if f.Floor != n {
						return false
					}
				} else if !strings.EqualFold(f.Unit, q) && !containsFold(f.Remarks, q) {
					return false
				}
			}
			if filter.Status.Valid() && f.Status != filter.Status {
				return false
			}
			return filter.Floor <= 0 || f.Floor == filter.Floor
		})
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

func (r *memFlats) ListAll(ctx context.Context) ([]*models.Flat, error) {
	var out []*models.Flat
	err := r.run("flats.ListAll", func(st *memState) error {
		out = r.sorted(st, func(models.Flat) bool { return true })
		return nil
	})
	return out, err
}

func (r *memFlats) CountByStatus(ctx context.Context) (map[models.FlatStatus]int, error) {
	counts := map[models.FlatStatus]int{}
	err := r.run("flats.CountByStatus", func(st *memState) error {
		for _, f := range st.flats {
			counts[f.Status]++
		}
		return nil
	})
	return counts, err
}

type memPeople struct {
	memBase
	kind  models.PersonKind
	table string
}

func (r *memPeople) Create(ctx context.Context, person *models.Person) error {
	return r.run(r.table+".Create", func(st *memState) error {
		if _, ok := st.people[r.kind][person.ID]; ok {
			return duplicate(r.table + "_pkey")
		}
		p := *person
		p.Kind = r.kind
		p.CreatedAt, p.UpdatedAt = r.now(), r.now()
		st.people[r.kind][p.ID] = p
		st.stamp(p.ID)
		return nil
	})
}

func (r *memPeople) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var out *models.Person
	err := r.run(r.table+".GetByID", func(st *memState) error {
		p, ok := st.people[r.kind][id]
		if !ok {
			return models.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *memPeople) Update(ctx context.Context, person *models.Person) error {
	return r.run(r.table+".Update", func(st *memState) error {
		old, ok := st.people[r.kind][person.ID]
		if !ok {
			return models.ErrNotFound
		}
		p := *person
		p.Kind, p.CreatedAt, p.UpdatedAt = r.kind, old.CreatedAt, r.now()
		st.people[r.kind][p.ID] = p
		return nil
	})
}

func (r *memPeople) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	return r.run(r.table+".UpdatePhone", func(st *memState) error {
		p, ok := st.people[r.kind][id]
		if !ok {
			return models.ErrNotFound
		}
		p.Phone, p.UpdatedAt = phone, r.now()
		st.people[r.kind][id] = p
		return nil
	})
}

func (r *memPeople) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run(r.table+".Delete", func(st *memState) error {
		if _, ok := st.people[r.kind][id]; !ok {
			return models.ErrNotFound
		}
		delete(st.people[r.kind], id)
		tk := models.TenureOwnership
		if r.kind == models.PersonLessee {
			tk = models.TenureTenancy
		}
		for tid, t := range st.tenures[tk] {
			if t.PartyID == id {
				delete(st.tenures[tk], tid)
			}
		}
		for vid, v := range st.vehicles {
			if r.kind == models.PersonOwner && v.OwnerID != nil && *v.OwnerID == id {
				v.OwnerID = nil
			}
			if r.kind == models.PersonLessee && v.LesseeID != nil && *v.LesseeID == id {
				v.LesseeID = nil
			}
			st.vehicles[vid] = v
		}
		return nil
	})
}

func (r *memPeople) collect(st *memState, keep func(models.Person) bool, byName bool) []*models.Person {
	var out []*models.Person
	for _, p := range st.people[r.kind] {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if byName && out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	return out
}

func (r *memPeople) List(ctx context.Context, query string, limit, offset int) ([]*models.Person, error) {
	var out []*models.Person
	err := r.run(r.table+".List", func(st *memState) error {
		out = r.collect(st, func(p models.Person) bool {
			return query == "" || containsFold(p.Name, query) || containsFold(p.Phone, query) || containsFold(p.Email, query)
		}, true)
		out = page(out, limit, offset)
		return nil
	})
	return out, err
}

func (r *memPeople) FindByName(ctx context.Context, name string) ([]*models.Person, error) {
	var out []*models.Person
	err := r.run(r.table+".FindByName", func(st *memState) error {
		out = r.collect(st, func(p models.Person) bool {
			return strings.ToLower(p.Name) == strings.ToLower(name)
		}, false)
		return nil
	})
	return out, err
}

func (r *memPeople) Search(ctx context.Context, query string, limit int) ([]*models.Person, error) {
	var out []*models.Person
	err := r.run(r.table+".Search", func(st *memState) error {
		out = r.collect(st, func(p models.Person) bool {
			return containsFold(p.Name, query) || containsFold(p.Phone, query)
		}, true)
		out = page(out, limit, 0)
		return nil
	})
	return out, err
}

type memTenures struct {
	memBase
	kind       models.TenureKind
	table      string
	constraint string
}

func (r *memTenures) Create(ctx context.Context, tenure *models.Tenure) error {
	return r.run(r.table+".Create", func(st *memState) error {
		if tenure.EndDate == nil {
			for _, t := range st.tenures[r.kind] {
				if t.FlatID == tenure.FlatID && t.EndDate == nil {
					return activeConflict(r.constraint)
				}
			}
		}
		if tenure.EndDate != nil && tenure.EndDate.Before(tenure.StartDate) {
			return fmt.Errorf("%w (%s_dates_check)", models.ErrInvalidInterval, r.table)
		}
		t := *tenure
		t.Kind, t.CreatedAt = r.kind, r.now()
		st.tenures[r.kind][t.ID] = t
		st.stamp(t.ID)
		return nil
	})
}

func (r *memTenures) collect(st *memState, keep func(models.Tenure) bool) []*models.Tenure {
	var out []*models.Tenure
	for _, t := range st.tenures[r.kind] {
		if keep(t) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return st.order[out[i].ID] > st.order[out[j].ID]
	})
	return out
}

func (r *memTenures) FindActiveByFlat(ctx context.Context, flatID uuid.UUID) (*models.Tenure, error) {
	var out *models.Tenure
	err := r.run(r.table+".FindActiveByFlat", func(st *memState) error {
		if list := r.collect(st, func(t models.Tenure) bool { return t.FlatID == flatID && t.EndDate == nil }); len(list) > 0 {
			out = list[0]
		}
		return nil
	})
	return out, err
}

func (r *memTenures) ListActive(ctx context.Context) ([]*models.Tenure, error) {
	var out []*models.Tenure
	err := r.run(r.table+".ListActive", func(st *memState) error {
		out = r.collect(st, func(t models.Tenure) bool { return t.EndDate == nil })
		return nil
	})
	return out, err
}

func (r *memTenures) ListByFlat(ctx context.Context, flatID uuid.UUID) ([]*models.Tenure, error) {
	var out []*models.Tenure
	err := r.run(r.table+".ListByFlat", func(st *memState) error {
		out = r.collect(st, func(t models.Tenure) bool { return t.FlatID == flatID })
		return nil
	})
	return out, err
}

func (r *memTenures) ListByParty(ctx context.Context, partyID uuid.UUID) ([]*models.Tenure, error) {
	var out []*models.Tenure
	err := r.run(r.table+".ListByParty", func(st *memState) error {
		out = r.collect(st, func(t models.Tenure) bool { return t.PartyID == partyID })
		return nil
	})
	return out, err
}

func (r *memTenures) End(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	return r.run(r.table+".End", func(st *memState) error {
		t, ok := st.tenures[r.kind][id]
		if !ok || t.EndDate != nil {
			return fmt.Errorf("%s %s: %w", r.kind, id, models.ErrIntervalEnded)
		}
		if err := endInterval(&t.Interval, endDate); err != nil {
			return err
		}
		st.tenures[r.kind][id] = t
		return nil
	})
}

type memSpots struct{ memBase }

func (r *memSpots) check(st *memState, spot *models.ParkingSpot) error {
	for id, other := range st.spots {
		if id == spot.ID {
			continue
		}
		if other.Code == spot.Code {
			return duplicate("parking_spots_code_key")
		}
		if spot.FlatID != nil && other.FlatID != nil && *other.FlatID == *spot.FlatID {
			return duplicate("parking_spots_flat_id_key")
		}
	}
	return nil
}

func (r *memSpots) Create(ctx context.Context, spot *models.ParkingSpot) error {
	return r.run("parking_spots.Create", func(st *memState) error {
		if err := r.check(st, spot); err != nil {
			return err
		}
		sp := *spot
		sp.CreatedAt, sp.UpdatedAt = r.now(), r.now()
		st.spots[sp.ID] = sp
		st.stamp(sp.ID)
		return nil
	})
}

func (r *memSpots) GetByID(ctx context.Context, id uuid.UUID) (*models.ParkingSpot, error) {
	var out *models.ParkingSpot
	err := r.run("parking_spots.GetByID", func(st *memState) error {
		sp, ok := st.spots[id]
		if !ok {
			return models.ErrNotFound
		}
		out = &sp
		return nil
	})
	return out, err
}

func (r *memSpots) FindByFlat(ctx context.Context, flatID uuid.UUID) (*models.ParkingSpot, error) {
	var out *models.ParkingSpot
	err := r.run("parking_spots.FindByFlat", func(st *memState) error {
		for _, sp := range st.spots {
			if sp.FlatID != nil && *sp.FlatID == flatID {
				sp := sp
				out = &sp
			}
		}
		return nil
	})
	return out, err
}

func (r *memSpots) CodeExists(ctx context.Context, code string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.run("parking_spots.CodeExists", func(st *memState) error {
		for id, sp := range st.spots {
			if id != exclude && sp.Code == code {
				exists = true
			}
		}
		return nil
	})
	return exists, err
}

func (r *memSpots) Update(ctx context.Context, spot *models.ParkingSpot) error {
	return r.run("parking_spots.Update", func(st *memState) error {
		old, ok := st.spots[spot.ID]
		if !ok {
			return models.ErrNotFound
		}
		if err := r.check(st, spot); err != nil {
			return err
		}
		sp := *spot
		sp.CreatedAt, sp.UpdatedAt = old.CreatedAt, r.now()
		st.spots[sp.ID] = sp
		return nil
	})
}

func (r *memSpots) List(ctx context.Context, limit, offset int) ([]*models.ParkingSpot, error) {
	var out []*models.ParkingSpot
	err := r.run("parking_spots.List", func(st *memState) error {
		for _, sp := range st.spots {
			sp := sp
			out = append(out, &sp)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
		out = page(out, limit, offset)
		return nil
	})
	return out, err
}

type memVehicles struct{ memBase }

func (r *memVehicles) plateTaken(st *memState, v *models.Vehicle) bool {
	for id, other := range st.vehicles {
		if id != v.ID && other.PlateNo == v.PlateNo {
			return true
		}
	}
	return false
}

func (r *memVehicles) Create(ctx context.Context, v *models.Vehicle) error {
	return r.run("vehicles.Create", func(st *memState) error {
		if r.plateTaken(st, v) {
			return duplicate("vehicles_plate_no_key")
		}
		c := *v
		c.CreatedAt = r.now()
		st.vehicles[c.ID] = c
		st.stamp(c.ID)
		return nil
	})
}

func (r *memVehicles) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var out *models.Vehicle
	err := r.run("vehicles.GetByID", func(st *memState) error {
		v, ok := st.vehicles[id]
		if !ok {
			return models.ErrNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

func (r *memVehicles) Update(ctx context.Context, v *models.Vehicle) error {
	return r.run("vehicles.Update", func(st *memState) error {
		old, ok := st.vehicles[v.ID]
		if !ok {
			return models.ErrNotFound
		}
		if r.plateTaken(st, v) {
			return duplicate("vehicles_plate_no_key")
		}
		c := *v
		c.CreatedAt = old.CreatedAt
		st.vehicles[c.ID] = c
		return nil
	})
}

func (r *memVehicles) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run("vehicles.Delete", func(st *memState) error {
		if _, ok := st.vehicles[id]; !ok {
			return models.ErrNotFound
		}
		delete(st.vehicles, id)
		for aid, a := range st.assignments {
			if a.VehicleID != nil && *a.VehicleID == id {
				delete(st.assignments, aid)
			}
		}
		return nil
	})
}

func (r *memVehicles) List(ctx context.Context, filter repositories.VehicleFilter) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	err := r.run("vehicles.List", func(st *memState) error {
		for _, v := range st.vehicles {
			if filter.OwnerType != "" && v.OwnerType != filter.OwnerType {
				continue
			}
			if q := filter.Query; q != "" {
				match := containsFold(v.PlateNo, q)
				if v.OwnerID != nil {
					match = match || containsFold(st.people[models.PersonOwner][*v.OwnerID].Name, q)
				}
				if v.LesseeID != nil {
					match = match || containsFold(st.people[models.PersonLessee][*v.LesseeID].Name, q)
				}
				if v.ExternalOwner != nil {
					match = match || containsFold(v.ExternalOwner.Name, q)
				}
				if !match {
					continue
				}
			}
			v := v
			out = append(out, &v)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].PlateNo < out[j].PlateNo })
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}

type memAssignments struct{ memBase }

func (r *memAssignments) Create(ctx context.Context, a *models.ParkingAssignment) error {
	return r.run("parking_assignments.Create", func(st *memState) error {
		if a.EndDate == nil {
			for _, other := range st.assignments {
				if other.EndDate != nil {
					continue
				}
				if other.SpotID == a.SpotID {
					return activeConflict("one_active_assignment_per_spot")
				}
				if a.VehicleID != nil && other.VehicleID != nil && *other.VehicleID == *a.VehicleID {
					return activeConflict("one_active_assignment_per_vehicle")
				}
			}
		}
		c := *a
		c.CreatedAt = r.now()
		st.assignments[c.ID] = c
		st.stamp(c.ID)
		return nil
	})
}

func (r *memAssignments) collect(st *memState, keep func(models.ParkingAssignment) bool) []*models.ParkingAssignment {
	var out []*models.ParkingAssignment
	for _, a := range st.assignments {
		if keep(a) {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return st.order[out[i].ID] > st.order[out[j].ID]
	})
	return out
}

func (r *memAssignments) FindActiveBySpot(ctx context.Context, spotID uuid.UUID) (*models.ParkingAssignment, error) {
	var out *models.ParkingAssignment
	err := r.run("parking_assignments.FindActiveBySpot", func(st *memState) error {
		if list := r.collect(st, func(a models.ParkingAssignment) bool { return a.SpotID == spotID && a.EndDate == nil }); len(list) > 0 {
			out = list[0]
		}
		return nil
	})
	return out, err
}

func (r *memAssignments) FindActiveByVehicle(ctx context.Context, vehicleID uuid.UUID) (*models.ParkingAssignment, error) {
	var out *models.ParkingAssignment
	err := r.run("parking_assignments.FindActiveByVehicle", func(st *memState) error {
		list := r.collect(st, func(a models.ParkingAssignment) bool {
			return a.VehicleID != nil && *a.VehicleID == vehicleID && a.EndDate == nil
		})
		if len(list) > 0 {
			out = list[0]
		}
		return nil
	})
	return out, err
}

func (r *memAssignments) ListBySpot(ctx context.Context, spotID uuid.UUID) ([]*models.ParkingAssignment, error) {
	var out []*models.ParkingAssignment
	err := r.run("parking_assignments.ListBySpot", func(st *memState) error {
		out = r.collect(st, func(a models.ParkingAssignment) bool { return a.SpotID == spotID })
		return nil
	})
	return out, err
}

func (r *memAssignments) End(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	return r.run("parking_assignments.End", func(st *memState) error {
		a, ok := st.assignments[id]
		if !ok || a.EndDate != nil {
			return fmt.Errorf("parking assignment %s: %w", id, models.ErrIntervalEnded)
		}
		if err := endInterval(&a.Interval, endDate); err != nil {
			return err
		}
		st.assignments[id] = a
		return nil
	})
}

type memCategories struct{ memBase }

func (r *memCategories) nameTaken(st *memState, c *models.ServiceCategory) bool {
	for id, other := range st.categories {
		if id != c.ID && other.Name == c.Name {
			return true
		}
	}
	return false
}

func (r *memCategories) Create(ctx context.Context, category *models.ServiceCategory) error {
	return r.run("service_categories.Create", func(st *memState) error {
		if r.nameTaken(st, category) {
			return duplicate("service_categories_name_key")
		}
		c := *category
		c.CreatedAt = r.now()
		st.categories[c.ID] = c
		st.stamp(c.ID)
		return nil
	})
}

func (r *memCategories) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceCategory, error) {
	var out *models.ServiceCategory
	err := r.run("service_categories.GetByID", func(st *memState) error {
		c, ok := st.categories[id]
		if !ok {
			return models.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *memCategories) Update(ctx context.Context, category *models.ServiceCategory) error {
	return r.run("service_categories.Update", func(st *memState) error {
		old, ok := st.categories[category.ID]
		if !ok {
			return models.ErrNotFound
		}
		if r.nameTaken(st, category) {
			return duplicate("service_categories_name_key")
		}
		c := *category
		c.CreatedAt = old.CreatedAt
		st.categories[c.ID] = c
		return nil
	})
}

func (r *memCategories) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run("service_categories.Delete", func(st *memState) error {
		if _, ok := st.categories[id]; !ok {
			return models.ErrNotFound
		}
		for _, p := range st.providers {
			if p.CategoryID == id {
				return fmt.Errorf("%w (service_providers_category_id_fkey)", models.ErrInUse)
			}
		}
		delete(st.categories, id)
		return nil
	})
}

func (r *memCategories) List(ctx context.Context, activeOnly bool) ([]*models.ServiceCategory, error) {
	var out []*models.ServiceCategory
	err := r.run("service_categories.List", func(st *memState) error {
		for _, c := range st.categories {
			if activeOnly && !c.IsActive {
				continue
			}
			c := c
			out = append(out, &c)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

type memProviders struct{ memBase }

func (r *memProviders) Create(ctx context.Context, provider *models.ServiceProvider) error {
	return r.run("service_providers.Create", func(st *memState) error {
		if _, ok := st.categories[provider.CategoryID]; !ok {
			return fmt.Errorf("%w (service_providers_category_id_fkey)", models.ErrInUse)
		}
		p := *provider
		p.CategoryName = ""
		p.CreatedAt = r.now()
		st.providers[p.ID] = p
		st.stamp(p.ID)
		return nil
	})
}

func (r *memProviders) withCategory(st *memState, p models.ServiceProvider) *models.ServiceProvider {
	p.CategoryName = st.categories[p.CategoryID].Name
	return &p
}

func (r *memProviders) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	var out *models.ServiceProvider
	err := r.run("service_providers.GetByID", func(st *memState) error {
		p, ok := st.providers[id]
		if !ok {
			return models.ErrNotFound
		}
		out = r.withCategory(st, p)
		return nil
	})
	return out, err
}

func (r *memProviders) Update(ctx context.Context, provider *models.ServiceProvider) error {
	return r.run("service_providers.Update", func(st *memState) error {
		old, ok := st.providers[provider.ID]
		if !ok {
			return models.ErrNotFound
		}
		if _, ok := st.categories[provider.CategoryID]; !ok {
			return fmt.Errorf("%w (service_providers_category_id_fkey)", models.ErrInUse)
		}
		p := *provider
		p.CategoryName, p.CreatedAt = "", old.CreatedAt
		st.providers[p.ID] = p
		return nil
	})
}

func (r *memProviders) Delete(ctx context.Context, id uuid.UUID) error {
	return r.run("service_providers.Delete", func(st *memState) error {
		if _, ok := st.providers[id]; !ok {
			return models.ErrNotFound
		}
		delete(st.providers, id)
		return nil
	})
}

func (r *memProviders) List(ctx context.Context, filter models.ProviderFilter) ([]*models.ServiceProvider, error) {
	var out []*models.ServiceProvider
	err := r.run("service_providers.List", func(st *memState) error {
		q := strings.TrimSpace(filter.Query)
		for _, p := range st.providers {
			cat := st.categories[p.CategoryID].Name
			if q != "" && !containsFold(p.FullName, q) && !containsFold(p.Phone, q) && !containsFold(p.Email, q) && !containsFold(cat, q) {
				continue
			}
			if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
				continue
			}
			if filter.Active != nil && p.IsActive != *filter.Active {
				continue
			}
			out = append(out, r.withCategory(st, p))
		}
		sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
		out = page(out, filter.Limit, filter.Offset)
		return nil
	})
	return out, err
}
