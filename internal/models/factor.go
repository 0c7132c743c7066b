package models

// CategoryFactor maps an activity category to its kg-CO2-per-unit factor.
// Position preserves definition order for display and editing.
type CategoryFactor struct {
	Category string  `db:"category" json:"category"`
	Factor   float64 `db:"factor" json:"factor"`
	Position int     `db:"position" json:"-"`
}

// FactorTable is a point-in-time snapshot of the factors table. Lookups on
// a missing category fall back to zero; callers that need to distinguish
// the fallback use Lookup.
type FactorTable map[string]float64

// Get returns the factor for a category, or 0 when the category is unknown.
func (t FactorTable) Get(category string) float64 {
	return t[category]
}

// Lookup returns the factor and whether the category is defined.
func (t FactorTable) Lookup(category string) (float64, bool) {
	factor, ok := t[category]
	return factor, ok
}

// DefaultFactors seeds a fresh installation. Values mirror the paper wall
// chart handed to classes: kg CO2 per sheet, per kg plastic, per kg food
// waste and per passenger-km.
var DefaultFactors = []CategoryFactor{
	{Category: "Paper (sheets)", Factor: 0.005},
	{Category: "Plastic (kg)", Factor: 6.0},
	{Category: "Food/Waste (kg)", Factor: 3.0},
	{Category: "Transport (km)", Factor: 0.21},
}
