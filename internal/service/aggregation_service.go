package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/dto"
	"github.com/ecoschool/ecoschool-api/internal/models"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

type ledgerReader interface {
	List(ctx context.Context, filter models.EntryFilter) ([]models.Entry, error)
}

// Leaderboard ordering directions. Ascending rewards the class with the
// lowest emissions, which matches the tool's purpose; descending remains
// available for deployments that rank by logged activity volume.
const (
	OrderAscending  = "asc"
	OrderDescending = "desc"
)

// AggregationServiceConfig tunes ranking direction and cache TTLs.
type AggregationServiceConfig struct {
	LeaderboardOrder    string
	DashboardCacheTTL   time.Duration
	LeaderboardCacheTTL time.Duration
}

// AggregationService derives totals, breakdowns, rankings and equivalence
// figures from ledger snapshots. Leaderboards read verified entries only.
type AggregationService struct {
	ledger ledgerReader
	carbon *CarbonService
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    AggregationServiceConfig
}

// NewAggregationService constructs the aggregation service.
func NewAggregationService(ledger ledgerReader, carbon *CarbonService, cache *CacheService, logger *zap.Logger, cfg AggregationServiceConfig) *AggregationService {
	if cfg.LeaderboardOrder != OrderDescending {
		cfg.LeaderboardOrder = OrderAscending
	}
	if cfg.DashboardCacheTTL <= 0 {
		cfg.DashboardCacheTTL = 2 * time.Minute
	}
	if cfg.LeaderboardCacheTTL <= 0 {
		cfg.LeaderboardCacheTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		ledger: ledger,
		carbon: carbon,
		cache:  cache,
		logger: logger,
		now:    time.Now,
		cfg:    cfg,
	}
}

// TotalCO2 sums co2 over the supplied entry set.
func (s *AggregationService) TotalCO2(entries []models.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.CO2
	}
	return total
}

// Window filters entries to those whose activity date falls on or after
// now minus the window. Future-dated entries stay in: the upper bound is
// deliberately unbounded.
func (s *AggregationService) Window(entries []models.Entry, now time.Time, window dto.Window) []models.Entry {
	var days int
	switch window {
	case dto.Window7Days:
		days = 7
	case dto.Window30Days:
		days = 30
	case dto.Window365:
		days = 365
	default:
		return entries
	}
	cutoff := now.AddDate(0, 0, -days)
	filtered := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.ActivityDate.Before(cutoff) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// BreakdownByCategory sums co2 per category, largest first.
func (s *AggregationService) BreakdownByCategory(entries []models.Entry) []dto.CategoryBreakdown {
	totals := make(map[string]float64)
	for _, e := range entries {
		totals[e.Category] += e.CO2
	}
	breakdown := make([]dto.CategoryBreakdown, 0, len(totals))
	for category, total := range totals {
		breakdown = append(breakdown, dto.CategoryBreakdown{Category: category, TotalCO2: total})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalCO2 == breakdown[j].TotalCO2 {
			return breakdown[i].Category < breakdown[j].Category
		}
		return breakdown[i].TotalCO2 > breakdown[j].TotalCO2
	})
	return breakdown
}

// BreakdownByClass sums co2 per class, largest first.
func (s *AggregationService) BreakdownByClass(entries []models.Entry) []dto.ClassBreakdown {
	totals := make(map[string]float64)
	for _, e := range entries {
		totals[e.ClassName] += e.CO2
	}
	breakdown := make([]dto.ClassBreakdown, 0, len(totals))
	for class, total := range totals {
		breakdown = append(breakdown, dto.ClassBreakdown{ClassName: class, TotalCO2: total})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].TotalCO2 == breakdown[j].TotalCO2 {
			return breakdown[i].ClassName < breakdown[j].ClassName
		}
		return breakdown[i].TotalCO2 > breakdown[j].TotalCO2
	})
	return breakdown
}

// RankClasses groups entries by class and assigns dense ranks: equal
// totals share a rank and the next distinct total takes the successor.
func (s *AggregationService) RankClasses(entries []models.Entry) []dto.ClassRank {
	totals := make(map[string]float64)
	for _, e := range entries {
		totals[e.ClassName] += e.CO2
	}
	ranks := make([]dto.ClassRank, 0, len(totals))
	for class, total := range totals {
		ranks = append(ranks, dto.ClassRank{ClassName: class, TotalCO2: total})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].TotalCO2 == ranks[j].TotalCO2 {
			return ranks[i].ClassName < ranks[j].ClassName
		}
		return s.better(ranks[i].TotalCO2, ranks[j].TotalCO2)
	})

	rank := 0
	for i := range ranks {
		if i == 0 || ranks[i].TotalCO2 != ranks[i-1].TotalCO2 {
			rank++
		}
		ranks[i].Rank = rank
	}
	return ranks
}

// RankStudents groups by (student, class) and assigns dense ranks, and
// decorates each row with accumulated points and the earned badge.
func (s *AggregationService) RankStudents(entries []models.Entry) []dto.StudentRank {
	type key struct {
		student string
		class   string
	}
	totals := make(map[key]*dto.StudentRank)
	order := make([]key, 0)
	for _, e := range entries {
		k := key{student: e.Student, class: e.ClassName}
		row, ok := totals[k]
		if !ok {
			row = &dto.StudentRank{Student: e.Student, ClassName: e.ClassName}
			totals[k] = row
			order = append(order, k)
		}
		row.TotalCO2 += e.CO2
		row.Points += e.Points
	}

	ranks := make([]dto.StudentRank, 0, len(order))
	for _, k := range order {
		row := totals[k]
		row.Badge = s.carbon.BadgeForTotal(row.TotalCO2)
		ranks = append(ranks, *row)
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].TotalCO2 == ranks[j].TotalCO2 {
			if ranks[i].ClassName == ranks[j].ClassName {
				return ranks[i].Student < ranks[j].Student
			}
			return ranks[i].ClassName < ranks[j].ClassName
		}
		return s.better(ranks[i].TotalCO2, ranks[j].TotalCO2)
	})

	rank := 0
	for i := range ranks {
		if i == 0 || ranks[i].TotalCO2 != ranks[i-1].TotalCO2 {
			rank++
		}
		ranks[i].Rank = rank
	}
	return ranks
}

// Dashboard composes the windowed dashboard payload over all entries
// (verified or not, matching the original dashboard), cached when a cache
// is wired.
func (s *AggregationService) Dashboard(ctx context.Context, window dto.Window) (*dto.DashboardResponse, bool, error) {
	cacheKey := fmt.Sprintf("agg:dashboard:%s", window)
	var cached dto.DashboardResponse
	if hit := s.tryCache(ctx, cacheKey, &cached); hit {
		return &cached, true, nil
	}

	entries, err := s.ledger.List(ctx, models.EntryFilter{Verified: models.VerifiedAll})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	windowed := s.Window(entries, s.now(), window)
	total := s.TotalCO2(windowed)

	summary := &dto.DashboardResponse{
		Window:      window,
		TotalCO2:    total,
		EntryCount:  len(windowed),
		Badge:       s.carbon.BadgeForTotal(total),
		ByCategory:  s.BreakdownByCategory(windowed),
		ByClass:     s.BreakdownByClass(windowed),
		Equivalents: s.carbon.Equivalents(total),
	}
	s.persistCache(ctx, cacheKey, summary, s.cfg.DashboardCacheTTL)
	return summary, false, nil
}

// ClassLeaderboard ranks classes over verified entries only.
func (s *AggregationService) ClassLeaderboard(ctx context.Context) ([]dto.ClassRank, bool, error) {
	cacheKey := "agg:leaderboard:classes"
	var cached []dto.ClassRank
	if hit := s.tryCache(ctx, cacheKey, &cached); hit {
		return cached, true, nil
	}

	entries, err := s.verifiedEntries(ctx)
	if err != nil {
		return nil, false, err
	}
	board := s.RankClasses(entries)
	s.persistCache(ctx, cacheKey, board, s.cfg.LeaderboardCacheTTL)
	return board, false, nil
}

// StudentLeaderboard ranks students over verified entries only.
func (s *AggregationService) StudentLeaderboard(ctx context.Context) ([]dto.StudentRank, bool, error) {
	cacheKey := "agg:leaderboard:students"
	var cached []dto.StudentRank
	if hit := s.tryCache(ctx, cacheKey, &cached); hit {
		return cached, true, nil
	}

	entries, err := s.verifiedEntries(ctx)
	if err != nil {
		return nil, false, err
	}
	board := s.RankStudents(entries)
	s.persistCache(ctx, cacheKey, board, s.cfg.LeaderboardCacheTTL)
	return board, false, nil
}

// WeeklyChallenge ranks classes over verified entries logged since the
// Monday of the current week.
func (s *AggregationService) WeeklyChallenge(ctx context.Context) (*dto.WeeklyChallengeResponse, error) {
	entries, err := s.verifiedEntries(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	weekStart := startOfWeek(now)
	recent := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.ActivityDate.Before(weekStart) {
			recent = append(recent, e)
		}
	}

	return &dto.WeeklyChallengeResponse{
		WeekStart: weekStart.Format("2006-01-02"),
		Board:     s.RankClasses(recent),
	}, nil
}

func (s *AggregationService) verifiedEntries(ctx context.Context) ([]models.Entry, error) {
	entries, err := s.ledger.List(ctx, models.EntryFilter{Verified: models.VerifiedOnly})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verified entries")
	}
	return entries, nil
}

// better reports whether total a outranks total b under the configured
// direction.
func (s *AggregationService) better(a, b float64) bool {
	if s.cfg.LeaderboardOrder == OrderDescending {
		return a > b
	}
	return a < b
}

func (s *AggregationService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("aggregate cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *AggregationService) persistCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("aggregate cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// startOfWeek returns midnight on the Monday of now's week.
func startOfWeek(now time.Time) time.Time {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := now.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}
