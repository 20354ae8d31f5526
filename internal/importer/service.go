package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bms/internal/models"
	"bms/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Archiver stores a copy of an applied import.
type Archiver interface {
	Archive(ctx context.Context, key string, body []byte, contentType string) error
}

// Listener is told after an applied import changed flat statuses.
type Listener interface {
	StatusChanged(ctx context.Context)
}

type Config struct {
	Location      *time.Location
	DefaultPolicy ConflictPolicy
	MaxRows       int
}

type Request struct {
	Data          string     `json:"data"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	VacateMissing bool       `json:"vacate_missing"`
	DryRun        bool       `json:"dry_run"`
	OnConflict    string     `json:"on_conflict,omitempty"`
}

type Result struct {
	DryRun    bool           `json:"dry_run"`
	StartDate time.Time      `json:"start_date"`
	Policy    ConflictPolicy `json:"on_conflict"`
	Rows      int            `json:"rows"`
	Counters  Counters       `json:"counters"`
	Message   string         `json:"message"`
	Effects   []Effect       `json:"effects,omitempty"`
}

type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	store    repositories.Store
	listener Listener
	archiver Archiver
	cfg      Config
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewService builds the bulk owner importer. listener and archiver may be
// nil.
func NewService(store repositories.Store, listener Listener, archiver Archiver, cfg Config, log logrus.FieldLogger) Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultPolicy == "" {
		cfg.DefaultPolicy = LastWins
	}
	return &service{
		store:    store,
		listener: listener,
		archiver: archiver,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *service) options(req Request) (Options, error) {
	opts := Options{VacateMissing: req.VacateMissing, OnConflict: s.cfg.DefaultPolicy}
	if strings.TrimSpace(req.OnConflict) != "" {
		policy, err := ParseConflictPolicy(req.OnConflict)
		if err != nil {
			return opts, err
		}
		opts.OnConflict = policy
	}
	if req.StartDate != nil {
		opts.StartDate = models.DateOnly(*req.StartDate)
	} else {
		opts.StartDate = models.DateOnly(s.now().In(s.cfg.Location))
	}
	return opts, nil
}

// Run previews or applies one paste. A preview reads through the pool and
// writes nothing; an apply re-plans and executes inside one transaction.
func (s *service) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Data) == "" {
		return nil, models.NewValidationError("data", "is required")
	}
	opts, err := s.options(req)
	if err != nil {
		return nil, err
	}
	parsed := Parse(req.Data)
	if s.cfg.MaxRows > 0 && len(parsed.Rows) > s.cfg.MaxRows {
		return nil, models.NewValidationError("data", fmt.Sprintf("has more than %d rows", s.cfg.MaxRows))
	}

	res := &Result{
		DryRun:    req.DryRun,
		StartDate: opts.StartDate,
		Policy:    opts.OnConflict,
		Rows:      len(parsed.Rows),
	}
	log := s.log.WithFields(logrus.Fields{
		"rows":        res.Rows,
		"start_date":  opts.StartDate.Format(time.DateOnly),
		"dry_run":     req.DryRun,
		"on_conflict": opts.OnConflict,
	})

	if req.DryRun {
		plan, err := BuildPlan(ctx, s.store.Repos(), parsed, opts)
		if err != nil {
			return nil, err
		}
		res.Counters = plan.Counters
		res.Effects = plan.Effects
		res.Message = Message(res.Counters, true)
		log.Info(res.Message)
		return res, nil
	}

	err = s.store.InTx(ctx, func(ctx context.Context, repos *repositories.Repositories) error {
		plan, err := BuildPlan(ctx, repos, parsed, opts)
		if err != nil {
			return err
		}
		res.Counters, err = Apply(ctx, repos, plan)
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrActiveIntervalConflict) {
			log.WithError(err).Warn("import aborted by a concurrent writer")
		}
		return nil, err
	}
	res.Message = Message(res.Counters, false)
	log.Info(res.Message)

	if res.Counters.StatusChanged > 0 && s.listener != nil {
		s.listener.StatusChanged(ctx)
	}
	s.archive(ctx, req, res)
	return res, nil
}

func (s *service) archive(ctx context.Context, req Request, res *Result) {
	if s.archiver == nil {
		return
	}
	body, err := json.Marshal(struct {
		Request Request `json:"request"`
		Result  *Result `json:"result"`
	}{req, res})
	if err != nil {
		s.log.WithError(err).Error("encode import archive")
		return
	}
	key := fmt.Sprintf("imports/%s/%s.json", s.now().In(s.cfg.Location).Format("2006/01/02"), uuid.NewString())
	if err := s.archiver.Archive(ctx, key, body, "application/json"); err != nil {
		s.log.WithError(err).WithField("key", key).Error("archive import")
	}
}
