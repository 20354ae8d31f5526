package services

import (
	"context"
	"sort"
	"strings"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// searchPool bounds how many people are ranked for one type-ahead query.
const searchPool = 1000

// PeopleService manages owners or lessees.
type PeopleService interface {
	Kind() models.PersonKind
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error)
	Update(ctx context.Context, person *models.Person) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query string, limit, offset int) ([]*models.Person, error)
	// Search ranks people for type-ahead: phone substring when the query is
	// numeric, fuzzy name match otherwise.
	Search(ctx context.Context, query string, limit int) ([]*models.Person, error)
	// Tenures lists the person's ownerships or tenancies, newest first.
	Tenures(ctx context.Context, id uuid.UUID) ([]*models.Tenure, error)
}

type peopleService struct {
	store repositories.Store
	kind  models.PersonKind
}

func NewOwnerService(store repositories.Store) PeopleService {
	return &peopleService{store: store, kind: models.PersonOwner}
}

func NewLesseeService(store repositories.Store) PeopleService {
	return &peopleService{store: store, kind: models.PersonLessee}
}

func (s *peopleService) Kind() models.PersonKind {
	return s.kind
}

func (s *peopleService) repo() repositories.PersonRepository {
	if s.kind == models.PersonLessee {
		return s.store.Repos().Lessees
	}
	return s.store.Repos().Owners
}

func validatePerson(p *models.Person) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	if p.Name == "" {
		return models.NewValidationError("name", "is required")
	}
	if len(p.Name) > 120 {
		return models.NewValidationError("name", "cannot exceed 120 characters")
	}
	if len(p.Phone) > 40 {
		return models.NewValidationError("phone", "cannot exceed 40 characters")
	}
	return nil
}

func (s *peopleService) Create(ctx context.Context, person *models.Person) error {
	if err := validatePerson(person); err != nil {
		return err
	}
	person.ID = uuid.New()
	person.Kind = s.kind
	return s.repo().Create(ctx, person)
}

func (s *peopleService) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	return s.repo().GetByID(ctx, id)
}

func (s *peopleService) Update(ctx context.Context, person *models.Person) error {
	if err := validatePerson(person); err != nil {
		return err
	}
	return s.repo().Update(ctx, person)
}

func (s *peopleService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo().Delete(ctx, id)
}

func (s *peopleService) List(ctx context.Context, query string, limit, offset int) ([]*models.Person, error) {
	return s.repo().List(ctx, strings.TrimSpace(query), limit, offset)
}

func (s *peopleService) Search(ctx context.Context, query string, limit int) ([]*models.Person, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = 10
	}
	if query == "" {
		return []*models.Person{}, nil
	}
	if digits := models.NormalizePhone(query); digits != "" && digits == strings.ReplaceAll(query, " ", "") {
		return s.repo().Search(ctx, digits, limit)
	}

	pool, err := s.repo().List(ctx, "", searchPool, 0)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(pool))
	for i, p := range pool {
		names[i] = p.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]*models.Person, 0, limit)
	for _, r := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, pool[r.OriginalIndex])
	}
	return out, nil
}

func (s *peopleService) Tenures(ctx context.Context, id uuid.UUID) ([]*models.Tenure, error) {
	if _, err := s.repo().GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.kind == models.PersonLessee {
		return s.store.Repos().Tenancies.ListByParty(ctx, id)
	}
	return s.store.Repos().Ownerships.ListByParty(ctx, id)
}
