package workflow

import (
	"context"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepHandler is one state-machine step. Handlers mutate the event
// through the store's patch API and report drafts plus routing hints.
type stepHandler func(context.Context, *WorkflowState) (GroupResult, error)

// restoreOrAdvance completes the current step: an active detour returns
// to its caller, otherwise the flow moves to defaultNext. Returns the
// step the event now stands on.
func restoreOrAdvance(ws *WorkflowState, defaultNext int) int {
	e := ws.Event
	target := defaultNext
	patch := store.EventPatch{}
	if e.CallerStep != nil {
		target = *e.CallerStep
		patch.ClearCallerStep = true
	}
	target = models.ClampStep(target)
	patch.CurrentStep = &target
	ws.DB.UpdateEventMetadata(e, patch)
	return target
}

// moveTo sets the current step without touching an active detour marker.
func moveTo(ws *WorkflowState, step int) {
	step = models.ClampStep(step)
	ws.DB.UpdateEventMetadata(ws.Event, store.EventPatch{CurrentStep: &step})
}

// roomFree reports whether no other confirmed event occupies the room on
// the given day.
func roomFree(db *store.Database, roomName, iso string, excludeEventID string) bool {
	want, err := calendar.ParseDate(iso)
	if err != nil {
		return false
	}
	for _, e := range db.Events {
		if e.EventID == excludeEventID || e.Status == models.EventStatusCancelled {
			continue
		}
		if e.LockedRoomID != roomName || !e.DateConfirmed || e.ChosenDate == "" {
			continue
		}
		if d, err := calendar.ParseDate(e.ChosenDate); err == nil && sameDay(d, want) {
			return false
		}
	}
	return true
}

// chosenDateISO returns the event date in ISO form, empty when unset or
// unparseable.
func chosenDateISO(e *models.Event) string {
	if e.ChosenDate == "" {
		return ""
	}
	t, err := calendar.ParseDate(e.ChosenDate)
	if err != nil {
		return ""
	}
	return calendar.FormatISO(t)
}

// eventFacts seeds a facts object with what the event already binds.
func eventFacts(ws *WorkflowState) *verbalizer.Facts {
	e := ws.Event
	f := &verbalizer.Facts{Language: ws.Language()}
	if e == nil {
		return f
	}
	f.DateISO = chosenDateISO(e)
	f.Room = e.LockedRoomID
	if e.Requirements.NumberOfParticipants != nil {
		n := *e.Requirements.NumberOfParticipants
		f.Participants = &n
	}
	f.TimeRange = e.Requirements.Duration
	return f
}

// setThreadState patches the waiting marker on the event.
func setThreadState(ws *WorkflowState, state models.ThreadState) {
	ws.DB.UpdateEventMetadata(ws.Event, store.EventPatch{ThreadState: &state})
}
