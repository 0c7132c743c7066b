package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/dto"
	"github.com/ecoschool/ecoschool-api/internal/models"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func newTestAggregationService(repo ledgerReader, cache *CacheService, order string) *AggregationService {
	return NewAggregationService(
		repo,
		NewCarbonService(CarbonServiceConfig{}),
		cache,
		zap.NewNop(),
		AggregationServiceConfig{LeaderboardOrder: order},
	)
}

func TestAggregationTotalsAndBreakdowns(t *testing.T) {
	entries := []models.Entry{
		{Student: "Ana", ClassName: "7A", Category: "Paper (sheets)", CO2: 1.0},
		{Student: "Ben", ClassName: "7A", Category: "Transport (km)", CO2: 2.1},
		{Student: "Cleo", ClassName: "7B", Category: "Paper (sheets)", CO2: 0.5},
	}
	svc := newTestAggregationService(&fakeEntryRepo{entries: entries}, nil, OrderAscending)

	assert.InDelta(t, 3.6, svc.TotalCO2(entries), 1e-9)

	byCategory := svc.BreakdownByCategory(entries)
	require.Len(t, byCategory, 2)
	assert.Equal(t, "Transport (km)", byCategory[0].Category)
	assert.InDelta(t, 2.1, byCategory[0].TotalCO2, 1e-9)
	assert.Equal(t, "Paper (sheets)", byCategory[1].Category)
	assert.InDelta(t, 1.5, byCategory[1].TotalCO2, 1e-9)

	byClass := svc.BreakdownByClass(entries)
	require.Len(t, byClass, 2)
	assert.Equal(t, "7A", byClass[0].ClassName)
	assert.InDelta(t, 3.1, byClass[0].TotalCO2, 1e-9)
}

func TestAggregationWindowFiltering(t *testing.T) {
	now := day("2026-03-10")
	entries := []models.Entry{
		{ID: 1, ActivityDate: day("2026-03-09")},
		{ID: 2, ActivityDate: day("2026-03-03")}, // exactly 7 days back, inclusive
		{ID: 3, ActivityDate: day("2026-03-02")},
		{ID: 4, ActivityDate: day("2026-04-01")}, // future stays in
	}
	svc := newTestAggregationService(&fakeEntryRepo{}, nil, OrderAscending)

	week := svc.Window(entries, now, dto.Window7Days)
	ids := make([]int64, 0, len(week))
	for _, e := range week {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{1, 2, 4}, ids)

	all := svc.Window(entries, now, dto.WindowAll)
	assert.Len(t, all, 4)
}

func TestAggregationRankClassesAscending(t *testing.T) {
	entries := []models.Entry{
		{ClassName: "7A", CO2: 10.0},
		{ClassName: "7B", CO2: 5.0},
	}
	svc := newTestAggregationService(&fakeEntryRepo{}, nil, OrderAscending)

	board := svc.RankClasses(entries)
	require.Len(t, board, 2)
	assert.Equal(t, "7B", board[0].ClassName)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "7A", board[1].ClassName)
	assert.Equal(t, 2, board[1].Rank)
}

func TestAggregationRankClassesDescending(t *testing.T) {
	entries := []models.Entry{
		{ClassName: "7A", CO2: 10.0},
		{ClassName: "7B", CO2: 5.0},
	}
	svc := newTestAggregationService(&fakeEntryRepo{}, nil, OrderDescending)

	board := svc.RankClasses(entries)
	require.Len(t, board, 2)
	assert.Equal(t, "7A", board[0].ClassName)
	assert.Equal(t, 1, board[0].Rank)
}

func TestAggregationDenseRankingOnTies(t *testing.T) {
	entries := []models.Entry{
		{ClassName: "7A", CO2: 5.0},
		{ClassName: "7B", CO2: 5.0},
		{ClassName: "7C", CO2: 10.0},
	}
	svc := newTestAggregationService(&fakeEntryRepo{}, nil, OrderAscending)

	board := svc.RankClasses(entries)
	require.Len(t, board, 3)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 1, board[1].Rank)
	assert.Equal(t, 2, board[2].Rank)
}

func TestAggregationRankStudentsAccumulates(t *testing.T) {
	entries := []models.Entry{
		{Student: "Ana", ClassName: "7A", CO2: 1.0, Points: 2},
		{Student: "Ana", ClassName: "7A", CO2: 2.0, Points: 4},
		{Student: "Ben", ClassName: "7B", CO2: 0.5, Points: 1},
	}
	svc := newTestAggregationService(&fakeEntryRepo{}, nil, OrderAscending)

	board := svc.RankStudents(entries)
	require.Len(t, board, 2)
	assert.Equal(t, "Ben", board[0].Student)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "Ana", board[1].Student)
	assert.InDelta(t, 3.0, board[1].TotalCO2, 1e-9)
	assert.Equal(t, 6, board[1].Points)
	assert.Equal(t, "Seedling", board[1].Badge)
}

func TestAggregationLeaderboardsUseVerifiedOnly(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{
		{Student: "Ana", ClassName: "7A", CO2: 1.0, Verified: true},
		{Student: "Ben", ClassName: "7B", CO2: 0.1, Verified: false},
	}}
	svc := newTestAggregationService(repo, nil, OrderAscending)

	board, hit, err := svc.ClassLeaderboard(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, board, 1)
	assert.Equal(t, "7A", board[0].ClassName)
}

func TestAggregationDashboardComposesAndCaches(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{
		{Student: "Ana", ClassName: "7A", Category: "Paper (sheets)", CO2: 1.0, ActivityDate: day("2026-03-02")},
		{Student: "Ben", ClassName: "7B", Category: "Transport (km)", CO2: 2.1, ActivityDate: day("2026-03-02")},
	}}
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := newTestAggregationService(repo, cacheSvc, OrderAscending)
	svc.now = func() time.Time { return day("2026-03-05") }

	ctx := context.Background()
	result, hit, err := svc.Dashboard(ctx, dto.WindowAll)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.InDelta(t, 3.1, result.TotalCO2, 1e-9)
	assert.Equal(t, 2, result.EntryCount)
	assert.Equal(t, "Seedling", result.Badge)
	assert.Len(t, result.ByCategory, 2)
	assert.InDelta(t, 3.1/21.77, result.Equivalents.TreeYears, 1e-9)

	cached, hit2, err := svc.Dashboard(ctx, dto.WindowAll)
	require.NoError(t, err)
	assert.True(t, hit2)
	assert.Equal(t, result.TotalCO2, cached.TotalCO2)
}

func TestAggregationWeeklyChallengeSinceMonday(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{
		{ClassName: "7A", CO2: 1.0, ActivityDate: day("2026-03-04"), Verified: true}, // Wednesday
		{ClassName: "7B", CO2: 0.5, ActivityDate: day("2026-03-01"), Verified: true}, // previous Sunday
	}}
	svc := newTestAggregationService(repo, nil, OrderAscending)
	svc.now = func() time.Time { return day("2026-03-05") } // Thursday

	result, err := svc.WeeklyChallenge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", result.WeekStart)
	require.Len(t, result.Board, 1)
	assert.Equal(t, "7A", result.Board[0].ClassName)
}
