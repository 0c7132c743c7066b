package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/models"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
)

type fakeEntryRepo struct {
	entries   []models.Entry
	insertErr error
	cleared   bool
	nextID    int64
}

func (f *fakeEntryRepo) Insert(_ context.Context, entry *models.Entry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	entry.ID = f.nextID
	entry.Timestamp = time.Now().UTC()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeEntryRepo) List(_ context.Context, filter models.EntryFilter) ([]models.Entry, error) {
	if filter.Verified == models.VerifiedAll {
		return f.entries, nil
	}
	want := filter.Verified == models.VerifiedOnly
	out := make([]models.Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.Verified == want {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEntryRepo) DeleteAll(context.Context) error {
	f.cleared = true
	f.entries = nil
	return nil
}

func (f *fakeEntryRepo) Count(context.Context) (int, error) {
	return len(f.entries), nil
}

type fakeFactorSnapshot struct {
	table models.FactorTable
	err   error
}

func (f *fakeFactorSnapshot) Snapshot(context.Context) (models.FactorTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func newTestEntryService(repo *fakeEntryRepo, allowUnknown bool) *EntryService {
	return NewEntryService(
		repo,
		&fakeFactorSnapshot{table: classroomFactors()},
		NewCarbonService(CarbonServiceConfig{}),
		nil,
		nil,
		nil,
		zap.NewNop(),
		EntryServiceConfig{AllowUnknownCategory: allowUnknown},
	)
}

func TestEntryServiceSubmitComputesEstimate(t *testing.T) {
	repo := &fakeEntryRepo{}
	svc := newTestEntryService(repo, true)

	entry, err := svc.Submit(context.Background(), SubmitEntryRequest{
		Student:      "Ana",
		ClassName:    "7A",
		ActivityDate: "2026-03-02",
		Category:     "Paper (sheets)",
		Quantity:     200,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, entry.CO2, 1e-9)
	assert.Equal(t, 2, entry.Points)
	assert.False(t, entry.Verified)
	assert.Equal(t, "units", entry.Unit)
	assert.Equal(t, int64(1), entry.ID)
	require.Len(t, repo.entries, 1)
}

func TestEntryServiceSubmitValidation(t *testing.T) {
	svc := newTestEntryService(&fakeEntryRepo{}, true)

	cases := []SubmitEntryRequest{
		{ClassName: "7A", ActivityDate: "2026-03-02", Category: "Paper (sheets)", Quantity: 1},
		{Student: "Ana", ActivityDate: "2026-03-02", Category: "Paper (sheets)", Quantity: 1},
		{Student: "Ana", ClassName: "7A", Category: "Paper (sheets)", Quantity: 1},
		{Student: "Ana", ClassName: "7A", ActivityDate: "02-03-2026", Category: "Paper (sheets)", Quantity: 1},
		{Student: "Ana", ClassName: "7A", ActivityDate: "2026-03-02", Category: "Paper (sheets)", Quantity: -1},
	}
	for _, req := range cases {
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestEntryServiceSubmitRejectsBlankIdentity(t *testing.T) {
	repo := &fakeEntryRepo{}
	svc := newTestEntryService(repo, true)

	cases := []SubmitEntryRequest{
		{Student: "   ", ClassName: "7A", ActivityDate: "2026-03-02", Category: "Paper (sheets)", Quantity: 1},
		{Student: "Ana", ClassName: "\t", ActivityDate: "2026-03-02", Category: "Paper (sheets)", Quantity: 1},
		{Student: " \n ", ClassName: "  ", ActivityDate: "2026-03-02", Category: "Paper (sheets)", Quantity: 1},
	}
	for _, req := range cases {
		_, err := svc.Submit(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, repo.entries)
}

func TestEntryServiceSubmitTrimsIdentity(t *testing.T) {
	repo := &fakeEntryRepo{}
	svc := newTestEntryService(repo, true)

	entry, err := svc.Submit(context.Background(), SubmitEntryRequest{
		Student:      "  Ana ",
		ClassName:    " 7A\t",
		ActivityDate: "2026-03-02",
		Category:     "Paper (sheets)",
		Quantity:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", entry.Student)
	assert.Equal(t, "7A", entry.ClassName)
}

func TestEntryServiceSubmitUnknownCategoryAccepted(t *testing.T) {
	repo := &fakeEntryRepo{}
	svc := newTestEntryService(repo, true)

	entry, err := svc.Submit(context.Background(), SubmitEntryRequest{
		Student:      "Ben",
		ClassName:    "7B",
		ActivityDate: "2026-03-02",
		Category:     "Cardboard (kg)",
		Quantity:     3,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0, entry.CO2, 1e-9)
	assert.Equal(t, 1, entry.Points)
}

func TestEntryServiceSubmitUnknownCategoryRejected(t *testing.T) {
	svc := newTestEntryService(&fakeEntryRepo{}, false)

	_, err := svc.Submit(context.Background(), SubmitEntryRequest{
		Student:      "Ben",
		ClassName:    "7B",
		ActivityDate: "2026-03-02",
		Category:     "Cardboard (kg)",
		Quantity:     3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEntryServiceClearHandshake(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{{ID: 1}}}
	svc := newTestEntryService(repo, true)

	proposal, err := svc.ProposeClear(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, proposal.ConfirmToken)

	require.NoError(t, svc.ConfirmClear(context.Background(), proposal.ConfirmToken))
	assert.True(t, repo.cleared)

	// Token is single-use.
	err = svc.ConfirmClear(context.Background(), proposal.ConfirmToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEntryServiceClearRejectsWrongToken(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{{ID: 1}}}
	svc := newTestEntryService(repo, true)

	_, err := svc.ProposeClear(context.Background())
	require.NoError(t, err)

	err = svc.ConfirmClear(context.Background(), "not-the-token")
	require.Error(t, err)
	assert.False(t, repo.cleared)
}

func TestEntryServiceClearTokenExpires(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{{ID: 1}}}
	svc := newTestEntryService(repo, true)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	proposal, err := svc.ProposeClear(context.Background())
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(clearTokenTTL + time.Second) }
	err = svc.ConfirmClear(context.Background(), proposal.ConfirmToken)
	require.Error(t, err)
	assert.False(t, repo.cleared)
}

func TestEntryServiceNewerProposalSupersedes(t *testing.T) {
	repo := &fakeEntryRepo{entries: []models.Entry{{ID: 1}}}
	svc := newTestEntryService(repo, true)

	first, err := svc.ProposeClear(context.Background())
	require.NoError(t, err)
	second, err := svc.ProposeClear(context.Background())
	require.NoError(t, err)

	require.Error(t, svc.ConfirmClear(context.Background(), first.ConfirmToken))
	assert.False(t, repo.cleared)
	require.NoError(t, svc.ConfirmClear(context.Background(), second.ConfirmToken))
	assert.True(t, repo.cleared)
}
