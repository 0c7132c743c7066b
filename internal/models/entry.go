package models

import "time"

// VerifiedFilter selects entries by verification state.
type VerifiedFilter string

const (
	VerifiedAll  VerifiedFilter = "all"
	VerifiedOnly VerifiedFilter = "true"
	Unverified   VerifiedFilter = "false"
)

// Entry is one logged activity with its CO2 estimate computed at creation.
// Rows are immutable after insert except for the one-way verified flag.
type Entry struct {
	ID           int64     `db:"id" json:"id"`
	Timestamp    time.Time `db:"timestamp" json:"timestamp"`
	ActivityDate time.Time `db:"activity_date" json:"activity_date"`
	Student      string    `db:"student" json:"student"`
	ClassName    string    `db:"class_name" json:"class_name"`
	Category     string    `db:"category" json:"category"`
	Quantity     float64   `db:"quantity" json:"quantity"`
	Unit         string    `db:"unit" json:"unit"`
	Photo        []byte    `db:"photo" json:"photo,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	Verified     bool      `db:"verified" json:"verified"`
	Points       int       `db:"points" json:"points"`
	CO2          float64   `db:"co2" json:"co2"`
}

// EntryFilter narrows ledger reads. Date windowing is applied by the
// aggregation layer over the returned set, not by the store.
type EntryFilter struct {
	Verified VerifiedFilter
}

// ParseVerifiedFilter maps a query value onto a filter, defaulting to all.
func ParseVerifiedFilter(raw string) VerifiedFilter {
	switch raw {
	case string(VerifiedOnly):
		return VerifiedOnly
	case string(Unverified):
		return Unverified
	default:
		return VerifiedAll
	}
}
