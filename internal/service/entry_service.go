package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/dto"
	"github.com/ecoschool/ecoschool-api/internal/models"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

type entryRepository interface {
	Insert(ctx context.Context, entry *models.Entry) error
	List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type factorSnapshotter interface {
	Snapshot(ctx context.Context) (models.FactorTable, error)
}

// SubmitEntryRequest holds the draft a student submits.
type SubmitEntryRequest struct {
	Student      string  `json:"student" validate:"required"`
	ClassName    string  `json:"class_name" validate:"required"`
	ActivityDate string  `json:"activity_date" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit"`
	Notes        string  `json:"notes"`
	Photo        []byte  `json:"photo,omitempty"`
}

const clearTokenTTL = 10 * time.Minute

// EntryServiceConfig tunes submission behaviour.
type EntryServiceConfig struct {
	// AllowUnknownCategory keeps the historical zero-factor fallback:
	// submissions against an undefined category are stored with co2 = 0
	// and flagged on the warning channel. When false they are rejected.
	AllowUnknownCategory bool
}

// EntryService owns the activity ledger: submissions, the feed, and the
// two-step bulk clear.
type EntryService struct {
	repo      entryRepository
	factors   factorSnapshotter
	carbon    *CarbonService
	metrics   *MetricsService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       EntryServiceConfig
	now       func() time.Time

	mu         sync.Mutex
	clearToken string
	clearUntil time.Time
}

// NewEntryService constructs the entry service.
func NewEntryService(repo entryRepository, factors factorSnapshotter, carbon *CarbonService, metrics *MetricsService, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg EntryServiceConfig) *EntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryService{
		repo:      repo,
		factors:   factors,
		carbon:    carbon,
		metrics:   metrics,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Submit validates the draft, computes the CO2 estimate and score against
// the current factor table, and appends the entry. The stored co2 is never
// recomputed when factors change later.
func (s *EntryService) Submit(ctx context.Context, req SubmitEntryRequest) (*models.Entry, error) {
	// Trim before validating so whitespace-only identity fields fail required.
	req.Student = strings.TrimSpace(req.Student)
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	activityDate, err := time.Parse("2006-01-02", req.ActivityDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "activity_date must be YYYY-MM-DD")
	}

	table, err := s.factors.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load factor table")
	}

	if _, known := table.Lookup(req.Category); !known {
		if !s.cfg.AllowUnknownCategory {
			return nil, appErrors.Clone(appErrors.ErrValidation, "category is not defined in the factor table")
		}
		// Historical behaviour: the entry is accepted with a zero-impact
		// estimate. Flag it loudly so admins notice the gap in the table.
		s.logger.Warn("entry submitted against unknown category",
			zap.String("category", req.Category),
			zap.String("student", req.Student))
		if s.metrics != nil {
			s.metrics.RecordUnknownCategory(req.Category)
		}
	}

	co2 := s.carbon.Estimate(req.Category, req.Quantity, table)
	entry := &models.Entry{
		ActivityDate: activityDate,
		Student:      req.Student,
		ClassName:    req.ClassName,
		Category:     req.Category,
		Quantity:     req.Quantity,
		Unit:         defaultUnit(req.Unit),
		Photo:        req.Photo,
		Notes:        optionalText(req.Notes),
		Points:       s.carbon.Score(co2),
		CO2:          co2,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store entry")
	}
	if s.metrics != nil {
		s.metrics.RecordEntrySubmitted(entry.Category)
	}
	s.invalidateAggregates(ctx)
	return entry, nil
}

// List returns the ledger feed, newest first.
func (s *EntryService) List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	return entries, nil
}

// ProposeClear starts the destructive-wipe handshake and returns a one-shot
// confirmation token. A newer proposal supersedes any outstanding one.
func (s *EntryService) ProposeClear(ctx context.Context) (*dto.ClearProposalResponse, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect ledger")
	}

	s.mu.Lock()
	s.clearToken = uuid.NewString()
	s.clearUntil = s.now().Add(clearTokenTTL)
	token := s.clearToken
	expires := s.clearUntil
	s.mu.Unlock()

	s.logger.Info("ledger clear proposed", zap.Int("entries_at_stake", count))
	return &dto.ClearProposalResponse{ConfirmToken: token, ExpiresAt: expires.Unix()}, nil
}

// ConfirmClear executes the wipe when the token matches the outstanding
// proposal. A matching token is consumed; a mismatch leaves the proposal
// standing so a typo cannot burn it.
func (s *EntryService) ConfirmClear(ctx context.Context, token string) error {
	s.mu.Lock()
	valid := token != "" && token == s.clearToken && s.now().Before(s.clearUntil)
	if valid {
		s.clearToken = ""
		s.clearUntil = time.Time{}
	}
	s.mu.Unlock()

	if !valid {
		return appErrors.Clone(appErrors.ErrValidation, "confirmation token missing, expired or already used")
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear ledger")
	}
	s.invalidateAggregates(ctx)
	s.logger.Warn("ledger cleared")
	return nil
}

func (s *EntryService) invalidateAggregates(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "agg:*"); err != nil {
		s.logger.Warn("aggregate cache invalidation failed", zap.Error(err))
	}
}

func defaultUnit(unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return "units"
	}
	return unit
}

func optionalText(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}
