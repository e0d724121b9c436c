package verbalizer

import (
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Facts are the load-bearing values a polished draft must carry
// verbatim. A draft whose prose drops or drifts any of them falls back
// to its deterministic body.
type Facts struct {
	Language     string            `json:"language,omitempty"`
	DateISO      string            `json:"date,omitempty"`
	TimeRange    *models.TimeRange `json:"time_range,omitempty"`
	Room         string            `json:"room,omitempty"`
	Participants *int              `json:"participants,omitempty"`

	LineItems   []models.LineItem `json:"line_items,omitempty"`
	TotalAmount *float64          `json:"total_amount,omitempty"`
	Currency    string            `json:"currency,omitempty"`

	DepositAmount  *float64 `json:"deposit_amount,omitempty"`
	DepositDueISO  string   `json:"deposit_due,omitempty"`
	CandidateDates []string `json:"candidate_dates,omitempty"`
	VisitSlots     []string `json:"visit_slots,omitempty"`

	MissingBillingFields []string `json:"missing_billing_fields,omitempty"`
}

// Empty reports whether there is nothing to verify.
func (f *Facts) Empty() bool {
	return f.DateISO == "" && f.TimeRange == nil && f.Room == "" &&
		f.Participants == nil && len(f.LineItems) == 0 && f.TotalAmount == nil &&
		f.DepositAmount == nil && len(f.CandidateDates) == 0 &&
		len(f.VisitSlots) == 0 && len(f.MissingBillingFields) == 0
}

// allowedDates collects every ISO date the prose may legitimately carry.
func (f *Facts) allowedDates() []string {
	var out []string
	if f.DateISO != "" {
		out = append(out, f.DateISO)
	}
	if f.DepositDueISO != "" {
		out = append(out, f.DepositDueISO)
	}
	out = append(out, f.CandidateDates...)
	return out
}

// allowedAmounts collects every amount the prose may legitimately carry.
func (f *Facts) allowedAmounts() []float64 {
	var out []float64
	for _, it := range f.LineItems {
		out = append(out, it.Total, it.UnitPrice)
	}
	if f.TotalAmount != nil {
		out = append(out, *f.TotalAmount)
	}
	if f.DepositAmount != nil {
		out = append(out, *f.DepositAmount)
	}
	return out
}
