package service

import (
	"math"

	"github.com/ecoschool/ecoschool-api/internal/dto"
	"github.com/ecoschool/ecoschool-api/internal/models"
)

// ScoringStrategy maps a CO2 estimate (kg) onto a gamification score.
// Several mutually incompatible formulas circulated in earlier versions of
// the tool, so the mapping is pluggable and chosen once via configuration.
type ScoringStrategy func(co2 float64) int

// Named scoring policies.
const (
	ScoringReduction = "reduction"
	ScoringIntensity = "intensity"
	ScoringInverse   = "inverse"
)

var scoringStrategies = map[string]ScoringStrategy{
	// reduction: at least one point per logged activity, two per kg.
	ScoringReduction: func(co2 float64) int {
		return int(math.Round(math.Max(1, co2*2)))
	},
	// intensity: ten points per kg, no floor.
	ScoringIntensity: func(co2 float64) int {
		return int(math.Round(co2 * 10))
	},
	// inverse: rewards low-impact entries, floored at zero.
	ScoringInverse: func(co2 float64) int {
		return int(math.Max(0, math.Round(100-co2)))
	},
}

// EquivalentsConfig holds the kg-CO2-per-comparator constants. They are
// rough classroom figures, not physics; deployments may tune them.
type EquivalentsConfig struct {
	TreeYearsKg float64
	CarKmKg     float64
	EnergyKwhKg float64
}

// CarbonServiceConfig selects the scoring policy and conversion constants.
type CarbonServiceConfig struct {
	ScoringPolicy string
	Equivalents   EquivalentsConfig
}

// CarbonService converts quantities into CO2 estimates, scores and
// equivalence figures. All methods are pure.
type CarbonService struct {
	score  ScoringStrategy
	policy string
	equiv  EquivalentsConfig
}

// NewCarbonService constructs a CarbonService, falling back to the
// reduction policy and stock constants when unset.
func NewCarbonService(cfg CarbonServiceConfig) *CarbonService {
	policy := cfg.ScoringPolicy
	strategy, ok := scoringStrategies[policy]
	if !ok {
		policy = ScoringReduction
		strategy = scoringStrategies[ScoringReduction]
	}
	equiv := cfg.Equivalents
	if equiv.TreeYearsKg <= 0 {
		equiv.TreeYearsKg = 21.77
	}
	if equiv.CarKmKg <= 0 {
		equiv.CarKmKg = 0.21
	}
	if equiv.EnergyKwhKg <= 0 {
		equiv.EnergyKwhKg = 0.82
	}
	return &CarbonService{score: strategy, policy: policy, equiv: equiv}
}

// Policy reports the active scoring policy name.
func (s *CarbonService) Policy() string {
	return s.policy
}

// Estimate returns quantity x factor for the category. Unknown categories
// resolve to a zero factor; whether that is accepted at submission time is
// the entry service's policy, not this function's.
func (s *CarbonService) Estimate(category string, quantity float64, factors models.FactorTable) float64 {
	return quantity * factors.Get(category)
}

// Score maps a CO2 estimate onto points using the configured strategy.
func (s *CarbonService) Score(co2 float64) int {
	return s.score(co2)
}

// BadgeForTotal names the badge a cumulative total has earned.
func (s *CarbonService) BadgeForTotal(totalKg float64) string {
	switch {
	case totalKg < 5:
		return "Seedling"
	case totalKg < 20:
		return "Green Hero"
	case totalKg < 50:
		return "Eco Champion"
	default:
		return "Carbon Star"
	}
}

// Equivalents converts a CO2 total into tree-years, car-km and kWh.
func (s *CarbonService) Equivalents(totalKg float64) dto.Equivalents {
	return dto.Equivalents{
		TreeYears: totalKg / s.equiv.TreeYearsKg,
		CarKm:     totalKg / s.equiv.CarKmKg,
		EnergyKwh: totalKg / s.equiv.EnergyKwhKg,
	}
}
