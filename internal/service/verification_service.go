package service

import (
	"context"

	"go.uber.org/zap"

	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

type verificationRepository interface {
	MarkVerified(ctx context.Context, id int64) (bool, error)
	MarkAllVerified(ctx context.Context) (int64, error)
}

// VerificationService flips entries from unverified to verified. The
// transition is one-way; there is no un-verify.
type VerificationService struct {
	repo    verificationRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewVerificationService constructs the verification service.
func NewVerificationService(repo verificationRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VerificationService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// Verify marks one entry verified. Verifying an already-verified entry is a
// no-op; an unknown id is an error with no effect.
func (s *VerificationService) Verify(ctx context.Context, id int64) error {
	found, err := s.repo.MarkVerified(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify entry")
	}
	if !found {
		return appErrors.Clone(appErrors.ErrNotFound, "entry not found")
	}
	if s.metrics != nil {
		s.metrics.RecordEntriesVerified(1)
	}
	s.invalidate(ctx)
	return nil
}

// VerifyAll marks every unverified entry verified and reports how many
// flipped. Running it with nothing pending succeeds with zero.
func (s *VerificationService) VerifyAll(ctx context.Context) (int64, error) {
	flipped, err := s.repo.MarkAllVerified(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify entries")
	}
	if flipped > 0 {
		s.logger.Info("bulk verification applied", zap.Int64("entries", flipped))
	}
	if s.metrics != nil {
		s.metrics.RecordEntriesVerified(flipped)
	}
	s.invalidate(ctx)
	return flipped, nil
}

func (s *VerificationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "agg:*"); err != nil {
		s.logger.Warn("aggregate cache invalidation failed", zap.Error(err))
	}
}
