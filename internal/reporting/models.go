package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics over call logs created in Range.
type CallsSummaryRequest struct {
	Range TimeRange `json:"range"`

	// VoIPUser narrows the summary to one agent.
	VoIPUser string `json:"voip_user,omitempty"`
}

type CallsSummary struct {
	Range    TimeRange `json:"range"`
	VoIPUser string    `json:"voip_user,omitempty"`

	TotalCalls    int `json:"total_calls"`
	IncomingCalls int `json:"incoming_calls"`
	OutgoingCalls int `json:"outgoing_calls"`

	// ByStatus is keyed by Call Log status, e.g. "No Answer".
	ByStatus map[string]int `json:"by_status"`
	// BySellType is keyed by the selling step recorded on the call; "" is reported as "Unset".
	BySellType map[string]int `json:"by_sell_type"`
	// ByAgent is keyed by voip_user; calls nobody attended are not counted.
	ByAgent map[string]int `json:"by_agent"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	RecordedCalls        int `json:"recorded_calls"`
	ReviewRequestedCalls int `json:"review_requested_calls"`
}
