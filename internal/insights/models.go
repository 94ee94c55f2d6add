package insights

import "errors"

// Typed failures callers branch on. Anything else is a generic
// collaborator failure. Insights are non-critical either way: the UI
// degrades to an inline message and booking flows continue.
var (
	ErrRateLimited    = errors.New("insight provider rate limited")
	ErrQuotaExhausted = errors.New("insight provider quota exhausted")
)

// Insight is the structured answer requested from the model.
type Insight struct {
	Summary    string   `json:"summary" jsonschema:"description=Two or three short sentences about equipment usage patterns"`
	Highlights []string `json:"highlights,omitempty" jsonschema:"description=Up to three bullet-point alerts or optimization hints"`
}

// Summary aggregates the recent bookings an insight is asked about.
type Summary struct {
	ProjectID     string
	EquipmentName string
	Total         int
	TotalHours    float64
	ByCostCenter  map[string]int
	ByLocation    map[string]int
	Recent        []string // formatted "date time requester (cost center)" lines
	Focused       string   // optional one-line description of a selected booking
}
