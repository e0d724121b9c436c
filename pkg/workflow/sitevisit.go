package workflow

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// defaultVisitSlots is offered when the venue configured none.
var defaultVisitSlots = []string{"10:00", "14:00", "16:00"}

const visitProposalCount = 3

var reVisitCancel = regexp.MustCompile(`(?i)\b(?:cancel|call\s+off|skip|drop|absagen|annuler)\b`)

// reVisitMention is the loose form: once the sub-state machine is active
// the client says "the visit", not "the site visit".
var reVisitMention = regexp.MustCompile(`(?i)\b(?:visit|viewing|tour|besichtigung|besichtigen|visite)\b`)

// wantsSiteVisit reports whether the message is about arranging a venue
// visit, either explicitly or because the sub-state machine is already
// mid-arrangement and the reply carries a date, slot, or yes/no.
func wantsSiteVisit(ws *WorkflowState) bool {
	if ws.Event == nil || ws.Continuation {
		return false
	}
	body := ws.StrippedBody()
	if reVisitTarget.MatchString(body) || ws.HasQnAType("site_visit") {
		return true
	}
	st := ws.Event.SiteVisitState.Status
	if (st.Pending() || st == models.SiteVisitScheduled) && reVisitMention.MatchString(body) {
		return true
	}
	if !st.Pending() {
		return false
	}
	ent := ws.Entities()
	sig := ws.Signals()
	switch st {
	case models.SiteVisitDatePending:
		return ent.DateISO != "" || ent.DateText != ""
	case models.SiteVisitTimePending:
		return ent.StartTime != "" || matchSlot(body, ws.Event.SiteVisitState.ProposedSlots) != ""
	case models.SiteVisitConfirmPending:
		return sig.IsConfirmation || sig.IsRejection
	}
	return false
}

// handleSiteVisit advances the visit sub-state machine in place; the
// booking step never moves because of a visit.
func (r *Router) handleSiteVisit(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event
	sv := &e.SiteVisitState
	body := ws.StrippedBody()

	if sv.Status.Pending() || sv.Status == models.SiteVisitScheduled {
		if reVisitCancel.MatchString(body) && (reVisitMention.MatchString(body) || reVisitTarget.MatchString(body)) {
			sv.Status = models.SiteVisitCancelled
			sv.PendingSlot = ""
			ws.DB.AppendAuditEntry(e, models.AuditEntry{Field: "site_visit", To: string(sv.Status)})
			return GroupResult{
				Action: ActionQnAAnswered,
				Drafts: []DraftSpec{visitDraft(ws, "No problem, the site visit is cancelled. We are happy to arrange a new one any time.")},
			}, nil
		}
	}

	switch sv.Status {
	case models.SiteVisitDatePending:
		return r.visitPickDate(ws)
	case models.SiteVisitTimePending:
		return r.visitPickSlot(ws)
	case models.SiteVisitConfirmPending:
		return r.visitConfirm(ws)
	default:
		// idle, scheduled, completed, cancelled: a fresh mention starts
		// (or restarts) the arrangement.
		return r.visitProposeDates(ws)
	}
}

func (r *Router) visitProposeDates(ws *WorkflowState) (GroupResult, error) {
	e := ws.Event
	sv := &e.SiteVisitState

	// A concrete date in the opening message short-circuits straight to
	// slot selection when it is viable.
	if iso := ws.Entities().DateISO; iso != "" {
		if t, err := calendar.ParseDate(iso); err == nil && r.visitDateOK(ws, t) {
			sv.DateISO = calendar.FormatISO(t)
			return r.proposeSlots(ws)
		}
	}

	dates := r.candidateVisitDates(ws, visitProposalCount)
	if len(dates) == 0 {
		return GroupResult{
			Action: ActionQnAAnswered,
			Drafts: []DraftSpec{visitDraft(ws, "We would love to show you the venue, but the coming weeks are fully committed. May we come back to you with dates a little further out?")},
		}, nil
	}
	sv.Status = models.SiteVisitDatePending
	sv.ProposedDates = dates
	sv.DateISO = ""
	sv.TimeSlot = ""
	sv.PendingSlot = ""
	ws.DB.AppendAuditEntry(ws.Event, models.AuditEntry{Field: "site_visit", To: string(sv.Status)})

	body := "Gladly! We can show you the venue on one of these days:\n\n" +
		verbalizer.BulletDates(dates) +
		"\n\nWhich one suits you?"
	spec := visitDraft(ws, body)
	spec.Facts.CandidateDates = dates
	return GroupResult{Action: ActionVisitDatesSent, Drafts: []DraftSpec{spec}}, nil
}

func (r *Router) visitPickDate(ws *WorkflowState) (GroupResult, error) {
	sv := &ws.Event.SiteVisitState
	iso := ws.Entities().DateISO
	if iso == "" {
		body := "Which of the proposed days works for your visit?\n\n" + verbalizer.BulletDates(sv.ProposedDates)
		spec := visitDraft(ws, body)
		spec.Facts.CandidateDates = sv.ProposedDates
		return GroupResult{Action: ActionVisitDatesSent, Drafts: []DraftSpec{spec}}, nil
	}
	t, err := calendar.ParseDate(iso)
	if err != nil || !r.visitDateOK(ws, t) {
		dates := r.candidateVisitDates(ws, visitProposalCount)
		sv.ProposedDates = dates
		body := "That day does not work for a visit on our side, sorry. These would:\n\n" + verbalizer.BulletDates(dates)
		spec := visitDraft(ws, body)
		spec.Facts.CandidateDates = dates
		return GroupResult{Action: ActionVisitDatesSent, Drafts: []DraftSpec{spec}}, nil
	}
	sv.DateISO = calendar.FormatISO(t)
	return r.proposeSlots(ws)
}

func (r *Router) proposeSlots(ws *WorkflowState) (GroupResult, error) {
	sv := &ws.Event.SiteVisitState
	slots := ws.Settings.SiteVisit.Slots
	if len(slots) == 0 {
		slots = defaultVisitSlots
	}
	sv.Status = models.SiteVisitTimePending
	sv.ProposedSlots = slots
	ws.DB.AppendAuditEntry(ws.Event, models.AuditEntry{Field: "site_visit", To: string(sv.Status)})

	body := "Great, " + verbalizer.FormatDateDisplay(sv.DateISO) + " works. We could welcome you at:\n\n" +
		verbalizer.SlotList(slots) +
		"\n\nWhich time do you prefer?"
	spec := visitDraft(ws, body)
	spec.Facts.DateISO = sv.DateISO
	spec.Facts.VisitSlots = slots
	return GroupResult{Action: ActionVisitSlotsSent, Drafts: []DraftSpec{spec}}, nil
}

func (r *Router) visitPickSlot(ws *WorkflowState) (GroupResult, error) {
	sv := &ws.Event.SiteVisitState
	slot := ws.Entities().StartTime
	if slot == "" {
		slot = matchSlot(ws.StrippedBody(), sv.ProposedSlots)
	}
	if slot == "" || !slotOffered(slot, sv.ProposedSlots) {
		body := "Which of these times should we reserve for your visit?\n\n" + verbalizer.SlotList(sv.ProposedSlots)
		spec := visitDraft(ws, body)
		spec.Facts.DateISO = sv.DateISO
		spec.Facts.VisitSlots = sv.ProposedSlots
		return GroupResult{Action: ActionVisitSlotsSent, Drafts: []DraftSpec{spec}}, nil
	}
	sv.PendingSlot = slot
	sv.Status = models.SiteVisitConfirmPending
	ws.DB.AppendAuditEntry(ws.Event, models.AuditEntry{Field: "site_visit", To: string(sv.Status)})

	body := "Shall we note " + slot + " on " + verbalizer.FormatDateDisplay(sv.DateISO) + " for your visit?"
	spec := visitDraft(ws, body)
	spec.Facts.DateISO = sv.DateISO
	spec.Facts.VisitSlots = []string{slot}
	return GroupResult{Action: ActionVisitConfirming, Drafts: []DraftSpec{spec}}, nil
}

func (r *Router) visitConfirm(ws *WorkflowState) (GroupResult, error) {
	sv := &ws.Event.SiteVisitState
	sig := ws.Signals()
	switch {
	case sig.IsConfirmation || sig.IsAcceptance || ws.Intent() == models.IntentConfirmDate:
		sv.TimeSlot = sv.PendingSlot
		sv.PendingSlot = ""
		sv.Status = models.SiteVisitScheduled
		ws.DB.AppendAuditEntry(ws.Event, models.AuditEntry{
			Field:  "site_visit",
			To:     string(sv.Status),
			Detail: sv.DateISO + " " + sv.TimeSlot,
		})
		body := "Your site visit is booked for " + verbalizer.FormatDateDisplay(sv.DateISO) + " at " + sv.TimeSlot + ". We look forward to meeting you!"
		spec := visitDraft(ws, body)
		spec.Facts.DateISO = sv.DateISO
		spec.Facts.VisitSlots = []string{sv.TimeSlot}
		return GroupResult{Action: ActionVisitScheduled, Drafts: []DraftSpec{spec}}, nil
	case sig.IsRejection:
		sv.PendingSlot = ""
		sv.Status = models.SiteVisitIdle
		return r.visitProposeDates(ws)
	default:
		body := "Should we fix " + sv.PendingSlot + " on " + verbalizer.FormatDateDisplay(sv.DateISO) + " for the visit? A short yes is enough."
		spec := visitDraft(ws, body)
		spec.Facts.DateISO = sv.DateISO
		return GroupResult{Action: ActionVisitConfirming, Drafts: []DraftSpec{spec}}, nil
	}
}

// visitDateOK checks a visit date against the venue policy: far enough
// out, a working day, not blocked, and never on a day some confirmed
// event takes place.
func (r *Router) visitDateOK(ws *WorkflowState, t time.Time) bool {
	min := ws.Settings.SiteVisit.MinDaysAhead
	if min <= 0 {
		min = 1
	}
	earliest := ws.Now.AddDate(0, 0, min)
	if t.Before(earliest.Truncate(24 * time.Hour)) {
		return false
	}
	if ws.Settings.SiteVisit.WeekdaysOnly {
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	for _, raw := range ws.Settings.SiteVisit.BlockedDates {
		if b, err := calendar.ParseDate(raw); err == nil && sameDay(b, t) {
			return false
		}
	}
	if !r.calendar.IsOperatingDay(t) || r.calendar.IsBlocked(t) {
		return false
	}
	return !dayHasConfirmedEvent(ws, t)
}

func dayHasConfirmedEvent(ws *WorkflowState, t time.Time) bool {
	for _, e := range ws.DB.Events {
		if !e.DateConfirmed || e.Status == models.EventStatusCancelled || e.ChosenDate == "" {
			continue
		}
		if d, err := calendar.ParseDate(e.ChosenDate); err == nil && sameDay(d, t) {
			return true
		}
	}
	return false
}

func (r *Router) candidateVisitDates(ws *WorkflowState, n int) []string {
	min := ws.Settings.SiteVisit.MinDaysAhead
	if min <= 0 {
		min = 1
	}
	var out []string
	day := ws.Now.AddDate(0, 0, min)
	for scanned := 0; len(out) < n && scanned < 120; scanned++ {
		if r.visitDateOK(ws, day) {
			out = append(out, calendar.FormatISO(day))
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

func visitDraft(ws *WorkflowState, body string) DraftSpec {
	return DraftSpec{
		Draft: models.Draft{Body: body, Topic: models.TopicSiteVisit},
		Facts: &verbalizer.Facts{Language: ws.Language()},
	}
}

func matchSlot(body string, slots []string) string {
	for _, s := range slots {
		if strings.Contains(body, s) {
			return s
		}
	}
	return ""
}

func slotOffered(slot string, slots []string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
