package dto

// Window names the supported dashboard time windows.
type Window string

const (
	WindowAll    Window = "all"
	Window7Days  Window = "last_7_days"
	Window30Days Window = "last_30_days"
	Window365    Window = "last_365_days"
)

// ParseWindow maps a query value onto a window, defaulting to all time.
func ParseWindow(raw string) Window {
	switch Window(raw) {
	case Window7Days, Window30Days, Window365:
		return Window(raw)
	default:
		return WindowAll
	}
}

// Equivalents expresses a CO2 total in intuitive comparators.
type Equivalents struct {
	TreeYears float64 `json:"tree_years"`
	CarKm     float64 `json:"car_km"`
	EnergyKwh float64 `json:"energy_kwh"`
}

// CategoryBreakdown is one slice of the per-category chart.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	TotalCO2 float64 `json:"total_co2"`
}

// ClassBreakdown is one slice of the per-class chart.
type ClassBreakdown struct {
	ClassName string  `json:"class_name"`
	TotalCO2  float64 `json:"total_co2"`
}

// DashboardResponse is the composed dashboard payload.
type DashboardResponse struct {
	Window      Window              `json:"window"`
	TotalCO2    float64             `json:"total_co2"`
	EntryCount  int                 `json:"entry_count"`
	Badge       string              `json:"badge"`
	ByCategory  []CategoryBreakdown `json:"by_category"`
	ByClass     []ClassBreakdown    `json:"by_class"`
	Equivalents Equivalents         `json:"equivalents"`
}

// StudentRank is one leaderboard row at student granularity.
type StudentRank struct {
	Student   string  `json:"student"`
	ClassName string  `json:"class_name"`
	TotalCO2  float64 `json:"total_co2"`
	Points    int     `json:"points"`
	Badge     string  `json:"badge"`
	Rank      int     `json:"rank"`
}

// ClassRank is one leaderboard row at class granularity.
type ClassRank struct {
	ClassName string  `json:"class_name"`
	TotalCO2  float64 `json:"total_co2"`
	Rank      int     `json:"rank"`
}

// WeeklyChallengeResponse holds the class board since Monday of this week.
type WeeklyChallengeResponse struct {
	WeekStart string      `json:"week_start"`
	Board     []ClassRank `json:"board"`
}

// ReportJobResponse augments a job with its signed download URL once done.
type ReportJobResponse struct {
	ID          string  `json:"id"`
	Format      string  `json:"format"`
	Status      string  `json:"status"`
	DownloadURL *string `json:"download_url,omitempty"`
	Error       *string `json:"error,omitempty"`
}

// ClearProposalResponse carries the one-shot confirmation token.
type ClearProposalResponse struct {
	ConfirmToken string `json:"confirm_token"`
	ExpiresAt    int64  `json:"expires_at"`
}
