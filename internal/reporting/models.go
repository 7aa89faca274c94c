package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics.
// Business isolation: BusinessID is required.

type CallsSummaryRequest struct {
	BusinessID string    `json:"business_id"`
	Range      TimeRange `json:"range"`
}

type CallsSummary struct {
	BusinessID string `json:"business_id"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	// Lead-capture counters: how many calls produced usable contact info.
	EmailsCaptured int `json:"emails_captured"`
	NamesCaptured  int `json:"names_captured"`
}

// BookingMetricsRequest captures appointment conversion over a range.

type BookingMetricsRequest struct {
	BusinessID string    `json:"business_id"`
	Range      TimeRange `json:"range"`
}

type BookingMetrics struct {
	BusinessID string `json:"business_id"`

	CallsAnswered int `json:"calls_answered"`
	Appointments  int `json:"appointments"`

	BookingRate float64 `json:"booking_rate"`
}
