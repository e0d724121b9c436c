package workflow

import (
	"context"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepDate settles the event date. A concrete, hostable date from the
// client confirms directly; a date arriving through a change detour is
// staged and needs an explicit yes before the booking moves.
func (r *Router) stepDate(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event
	ent := ws.Entities()
	sig := ws.Signals()

	if ent.DateISO != "" {
		t, err := calendar.ParseDate(ent.DateISO)
		if err == nil && r.calendar.Bookable(t, ws.Now) {
			if ws.FromChangeDetour {
				return r.stageDate(ws, t), nil
			}
			return r.confirmDate(ws, t), nil
		}
		return r.rejectDate(ws, t, err), nil
	}

	pendingProposal := e.ChosenDate != "" && !e.DateConfirmed
	if pendingProposal && (sig.IsConfirmation || sig.IsAcceptance || ws.Intent() == models.IntentConfirmDate) {
		t, err := calendar.ParseDate(e.ChosenDate)
		if err == nil && r.calendar.Bookable(t, ws.Now) {
			return r.confirmDate(ws, t), nil
		}
		return r.rejectDate(ws, t, err), nil
	}

	if ent.DateText != "" {
		from, ok := calendar.WindowStart(ent.DateText, ws.Now)
		if !ok {
			from = ws.Now.AddDate(0, 0, 7)
		}
		return r.proposeDates(ws, from, "For \""+ent.DateText+"\" we could host you on:"), nil
	}

	return r.proposeDates(ws, ws.Now.AddDate(0, 0, 7), "Which date do you have in mind? These days are currently open:"), nil
}

// confirmDate binds the date and moves on: back to the detour caller if
// one is waiting, to room evaluation otherwise.
func (r *Router) confirmDate(ws *WorkflowState, t time.Time) GroupResult {
	e := ws.Event
	display := calendar.FormatDisplay(t)
	confirmed := true
	status := models.EventStatusDateConfirmed
	ws.DB.UpdateEventMetadata(e, store.EventPatch{
		ChosenDate:    &display,
		DateConfirmed: &confirmed,
		Status:        &status,
	})
	restoreOrAdvance(ws, models.StepRoom)
	return GroupResult{Action: ActionDateConfirmed, Chain: true}
}

// stageDate records the revised date but leaves it unconfirmed; changing
// a standing booking takes an explicit yes.
func (r *Router) stageDate(ws *WorkflowState, t time.Time) GroupResult {
	e := ws.Event
	display := calendar.FormatDisplay(t)
	confirmed := false
	ws.DB.UpdateEventMetadata(e, store.EventPatch{
		ChosenDate:    &display,
		DateConfirmed: &confirmed,
	})
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	iso := calendar.FormatISO(t)
	body := "We can host you on " + display + " instead. Shall we move your booking to that date? " +
		"Room and offer will be re-checked once you confirm."
	return GroupResult{
		Action: ActionDateProposed,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicDateRequest},
			Facts: &verbalizer.Facts{Language: ws.Language(), DateISO: iso},
		}},
	}
}

func (r *Router) rejectDate(ws *WorkflowState, t time.Time, parseErr error) GroupResult {
	reason := "that date is not available"
	if parseErr == nil {
		switch {
		case !t.After(ws.Now):
			reason = "that date is already behind us"
		case !r.calendar.IsOperatingDay(t):
			reason = "the venue is closed on that day of the week"
		case r.calendar.IsBlocked(t):
			reason = "the venue is fully committed that day"
		}
	}
	dates := r.candidateISODates(ws.Now.AddDate(0, 0, 7), 3)
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	body := "Unfortunately " + reason + ". Nearby days we could offer:\n\n" +
		verbalizer.BulletDates(dates) + "\n\nWould one of these work?"
	return GroupResult{
		Action: ActionDateUnavailable,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicDateRequest},
			Facts: &verbalizer.Facts{Language: ws.Language(), CandidateDates: dates},
		}},
	}
}

func (r *Router) proposeDates(ws *WorkflowState, from time.Time, lead string) GroupResult {
	dates := r.candidateISODates(from, 3)
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	body := lead + "\n\n" + verbalizer.BulletDates(dates) + "\n\nJust reply with the date that suits you."
	return GroupResult{
		Action: ActionDateOptionsSent,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicDateRequest},
			Facts: &verbalizer.Facts{Language: ws.Language(), CandidateDates: dates},
		}},
	}
}

func (r *Router) candidateISODates(from time.Time, n int) []string {
	var out []string
	for _, t := range r.calendar.CandidateDates(from, n) {
		out = append(out, calendar.FormatISO(t))
	}
	return out
}
