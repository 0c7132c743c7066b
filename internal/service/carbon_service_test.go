package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecoschool/ecoschool-api/internal/models"
)

func classroomFactors() models.FactorTable {
	return models.FactorTable{
		"Paper (sheets)":   0.005,
		"Plastic (kg)":     6.0,
		"Food/Waste (kg)":  3.0,
		"Transport (km)":   0.21,
	}
}

func TestCarbonServiceEstimate(t *testing.T) {
	svc := NewCarbonService(CarbonServiceConfig{})
	table := classroomFactors()

	assert.InDelta(t, 1.0, svc.Estimate("Paper (sheets)", 200, table), 1e-9)
	assert.InDelta(t, 2.1, svc.Estimate("Transport (km)", 10, table), 1e-9)
	assert.InDelta(t, 0, svc.Estimate("Unknown", 42, table), 1e-9)
	assert.InDelta(t, 0, svc.Estimate("Plastic (kg)", 0, table), 1e-9)
}

func TestCarbonServiceScoringPolicies(t *testing.T) {
	reduction := NewCarbonService(CarbonServiceConfig{ScoringPolicy: ScoringReduction})
	assert.Equal(t, 1, reduction.Score(0))
	assert.Equal(t, 1, reduction.Score(0.3))
	assert.Equal(t, 4, reduction.Score(2.1))

	intensity := NewCarbonService(CarbonServiceConfig{ScoringPolicy: ScoringIntensity})
	assert.Equal(t, 0, intensity.Score(0))
	assert.Equal(t, 21, intensity.Score(2.1))

	inverse := NewCarbonService(CarbonServiceConfig{ScoringPolicy: ScoringInverse})
	assert.Equal(t, 100, inverse.Score(0))
	assert.Equal(t, 98, inverse.Score(2.1))
	assert.Equal(t, 0, inverse.Score(250))
}

func TestCarbonServiceUnknownPolicyFallsBack(t *testing.T) {
	svc := NewCarbonService(CarbonServiceConfig{ScoringPolicy: "bananas"})
	assert.Equal(t, ScoringReduction, svc.Policy())
	assert.Equal(t, 1, svc.Score(0))
}

func TestCarbonServiceBadges(t *testing.T) {
	svc := NewCarbonService(CarbonServiceConfig{})

	assert.Equal(t, "Seedling", svc.BadgeForTotal(0))
	assert.Equal(t, "Seedling", svc.BadgeForTotal(4.99))
	assert.Equal(t, "Green Hero", svc.BadgeForTotal(5))
	assert.Equal(t, "Eco Champion", svc.BadgeForTotal(20))
	assert.Equal(t, "Carbon Star", svc.BadgeForTotal(50))
}

func TestCarbonServiceEquivalents(t *testing.T) {
	svc := NewCarbonService(CarbonServiceConfig{})
	eq := svc.Equivalents(21.77)

	assert.InDelta(t, 1.0, eq.TreeYears, 1e-9)
	assert.InDelta(t, 21.77/0.21, eq.CarKm, 1e-9)
	assert.InDelta(t, 21.77/0.82, eq.EnergyKwh, 1e-9)
}
