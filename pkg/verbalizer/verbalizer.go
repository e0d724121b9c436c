// Package verbalizer polishes deterministic draft bodies into natural
// prose without letting a model touch the numbers. Generated prose is
// verified against the draft's facts; a drifting unit label is patched
// in place, and anything worse falls back to the deterministic body.
package verbalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

const (
	verbalizeMaxTokens   = 600
	verbalizeTemperature = 0.4
)

// Verbalizer runs the generate-verify-patch pipeline on drafts.
type Verbalizer struct {
	router *llm.Router
	logger *slog.Logger
}

// New creates a Verbalizer. The LLM router is required.
func New(router *llm.Router, logger *slog.Logger) *Verbalizer {
	if router == nil {
		panic("verbalizer: router is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verbalizer{
		router: router,
		logger: logger.With("component", "verbalizer"),
	}
}

// Polish upgrades the draft body to model prose when the facts survive
// verification. The incoming body is deterministic and correct, so every
// failure path simply keeps it. Polish never returns an error: prose is
// an upgrade, not a dependency.
func (v *Verbalizer) Polish(ctx context.Context, draft *models.Draft, facts *Facts, settings models.Settings) {
	if draft == nil || facts == nil || facts.Empty() {
		return
	}
	// The stub renders nothing better than the deterministic body.
	if llm.RouteFor(llm.OpVerbalize, settings.LLMProvider) == models.ProviderStub {
		return
	}

	prose, err := v.generate(ctx, draft.Body, facts, settings.LLMProvider)
	if err != nil {
		v.logger.Warn("verbalization failed, keeping deterministic body",
			"topic", draft.Topic,
			"error", err)
		return
	}

	report := Verify(prose, facts)
	if !report.OK() {
		patched, changed := patchUnitLabels(prose, facts.LineItems)
		if changed {
			prose = patched
			report = Verify(prose, facts)
		}
	}
	if !report.OK() {
		v.logger.Warn("verbalized prose failed fact check, keeping deterministic body",
			"topic", draft.Topic,
			"missing", report.MissingFacts,
			"foreign", report.ForeignValues)
		return
	}

	draft.Body = prose
}

func (v *Verbalizer) generate(ctx context.Context, reference string, facts *Facts, routing models.ProviderRouting) (string, error) {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("marshal facts: %w", err)
	}

	lang := facts.Language
	if lang == "" {
		lang = "en"
	}
	system := fmt.Sprintf(`You are the booking assistant of an event venue, writing one reply email body.
Write naturally and concisely in language %q.
Every date, amount, room name, participant count and unit in the FACTS must appear exactly as given; dates as DD.MM.YYYY and amounts with apostrophe thousands separators (e.g. 1'250.00).
Never introduce numbers, dates or prices that are not in the FACTS.
Respond with the email body only: no subject, no signature.`, lang)

	user := fmt.Sprintf("FACTS:\n%s\n\nReference draft to rephrase:\n%s", factsJSON, reference)

	resp, err := v.router.Complete(ctx, routing, llm.Request{
		Op:          llm.OpVerbalize,
		System:      system,
		User:        user,
		MaxTokens:   verbalizeMaxTokens,
		Temperature: verbalizeTemperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

// Report is the outcome of verifying prose against facts.
type Report struct {
	// MissingFacts names required values the prose dropped
	MissingFacts []string
	// ForeignValues lists numbers or dates the prose invented
	ForeignValues []string
}

// OK reports whether the prose may replace the deterministic body.
func (r Report) OK() bool {
	return len(r.MissingFacts) == 0 && len(r.ForeignValues) == 0
}

// Verify checks that prose carries every required fact and nothing the
// facts do not cover.
func Verify(prose string, f *Facts) Report {
	var rep Report

	if f.DateISO != "" && !containsDate(prose, f.DateISO) {
		rep.MissingFacts = append(rep.MissingFacts, "date")
	}
	if f.Room != "" && !strings.Contains(strings.ToLower(prose), strings.ToLower(f.Room)) {
		rep.MissingFacts = append(rep.MissingFacts, "room")
	}
	if f.Participants != nil {
		if !containsBounded(prose, fmt.Sprintf("%d", *f.Participants)) {
			rep.MissingFacts = append(rep.MissingFacts, "participants")
		}
	}
	if f.TimeRange != nil {
		if !strings.Contains(prose, f.TimeRange.Start) || !strings.Contains(prose, f.TimeRange.End) {
			rep.MissingFacts = append(rep.MissingFacts, "time_range")
		}
	}
	if f.TotalAmount != nil && !containsAmount(prose, *f.TotalAmount) {
		rep.MissingFacts = append(rep.MissingFacts, "total_amount")
	}
	if f.DepositAmount != nil && !containsAmount(prose, *f.DepositAmount) {
		rep.MissingFacts = append(rep.MissingFacts, "deposit_amount")
	}
	for _, iso := range f.CandidateDates {
		if !containsDate(prose, iso) {
			rep.MissingFacts = append(rep.MissingFacts, "candidate_date "+iso)
		}
	}
	for _, slot := range f.VisitSlots {
		if !strings.Contains(prose, slot) {
			rep.MissingFacts = append(rep.MissingFacts, "visit_slot "+slot)
		}
	}

	rep.ForeignValues = append(rep.ForeignValues, foreignDates(prose, f.allowedDates())...)
	rep.ForeignValues = append(rep.ForeignValues, foreignAmounts(prose, f.allowedAmounts())...)
	if f.Participants != nil {
		rep.ForeignValues = append(rep.ForeignValues, foreignCounts(prose, *f.Participants)...)
	}
	rep.ForeignValues = append(rep.ForeignValues, wrongUnitLabels(prose, f.LineItems)...)

	return rep
}

// unitLabelWords maps a pricing unit to the words prose may use for it.
// The first entry is the canonical label patches write.
var unitLabelWords = map[models.PricingUnit][]string{
	models.UnitPerPerson: {"per person", "pro person", "p.p.", "each"},
	models.UnitPerEvent:  {"per event", "pro anlass", "flat", "pauschal"},
}

func oppositeUnit(u models.PricingUnit) models.PricingUnit {
	if u == models.UnitPerPerson {
		return models.UnitPerEvent
	}
	return models.UnitPerPerson
}

// unitWindow is how far from an item's unit price a unit label is
// considered to describe that item.
const unitWindow = 48

// wrongUnitLabels flags unit labels adjacent to a line item's price that
// contradict the item's pricing unit.
func wrongUnitLabels(prose string, items []models.LineItem) []string {
	lower := strings.ToLower(prose)
	var wrong []string
	for _, it := range items {
		if !it.Unit.IsValid() {
			continue
		}
		idx := amountIndex(lower, it.UnitPrice)
		if idx < 0 {
			continue
		}
		window := windowAround(lower, idx, unitWindow)
		for _, label := range unitLabelWords[oppositeUnit(it.Unit)] {
			if strings.Contains(window, label) {
				wrong = append(wrong, fmt.Sprintf("%s near %s", label, it.Description))
			}
		}
	}
	return wrong
}

// patchUnitLabels swaps a wrong unit label next to a line item's price
// for the item's real unit. This is the only rewrite verification ever
// attempts; anything beyond a label swap falls back to the template.
func patchUnitLabels(prose string, items []models.LineItem) (string, bool) {
	changed := false
	for _, it := range items {
		if !it.Unit.IsValid() {
			continue
		}
		lower := strings.ToLower(prose)
		idx := amountIndex(lower, it.UnitPrice)
		if idx < 0 {
			continue
		}
		start, end := windowBounds(lower, idx, unitWindow)
		window := lower[start:end]
		for _, label := range unitLabelWords[oppositeUnit(it.Unit)] {
			pos := strings.Index(window, label)
			if pos < 0 {
				continue
			}
			at := start + pos
			want := unitLabelWords[it.Unit][0]
			prose = prose[:at] + want + prose[at+len(label):]
			changed = true
			break
		}
	}
	return prose, changed
}

// amountIndex locates any written variant of an amount, bounded by
// non-digits, and returns its index or -1.
func amountIndex(lower string, v float64) int {
	for _, variant := range amountVariants(v) {
		needle := strings.ToLower(variant)
		from := 0
		for {
			idx := strings.Index(lower[from:], needle)
			if idx < 0 {
				break
			}
			idx += from
			beforeOK := idx == 0 || !isDigit(lower[idx-1])
			afterIdx := idx + len(needle)
			afterOK := afterIdx >= len(lower) || !isDigit(lower[afterIdx])
			if beforeOK && afterOK {
				return idx
			}
			from = idx + 1
		}
	}
	return -1
}

func windowBounds(s string, idx, radius int) (int, int) {
	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + radius
	if end > len(s) {
		end = len(s)
	}
	return start, end
}

func windowAround(s string, idx, radius int) string {
	start, end := windowBounds(s, idx, radius)
	return s[start:end]
}
