package engagement

// DayScore is one calendar day's aggregate score. Date is a UTC day in
// YYYY-MM-DD form; days with no scorable events are omitted entirely.
type DayScore struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

// WeeklyScoresOutput holds the current and prior seven-day series
type WeeklyScoresOutput struct {
	CurrentWeek  []*DayScore `json:"current_week"`
	PreviousWeek []*DayScore `json:"previous_week"`
}

// RisingStarsInput contains parameters for the score ranking
type RisingStarsInput struct {
	Limit int
}

// RisingStar is one entry in the score ranking
type RisingStar struct {
	DiscordID  int64   `json:"discord_id"`
	Username   string  `json:"username"`
	Score      float64 `json:"score"`
	EventCount int     `json:"event_count"`
}

// RisingStarsOutput contains the score ranking
type RisingStarsOutput struct {
	Members []*RisingStar `json:"members"`
}

// ChurnRisksInput contains parameters for the churn scan. Zero values
// fall back to the defaults (30 day active window, 7 day silence
// threshold, 10 results).
type ChurnRisksInput struct {
	ActiveWindowDays    int
	SilentThresholdDays int
	Limit               int
}

// ChurnRisk is one member who was recently active but has gone quiet
type ChurnRisk struct {
	DiscordID int64  `json:"discord_id"`
	Username  string `json:"username"`

	// LastActive is the UTC day of the member's newest event
	LastActive string `json:"last_active"`
	DaysSilent int    `json:"days_silent"`
}

// ChurnRisksOutput contains the churn scan result
type ChurnRisksOutput struct {
	Members []*ChurnRisk `json:"members"`
}
