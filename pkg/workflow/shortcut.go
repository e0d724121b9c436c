package workflow

import (
	"fmt"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// tryShortcut jumps a fresh inquiry straight to offer composition when
// the first message already binds everything steps 2 and 3 would ask
// for: a bookable concrete date, a headcount, and a preferred room that
// fits and is free. Returns true when the jump was applied.
func (r *Router) tryShortcut(ws *WorkflowState) bool {
	e := ws.Event
	if e == nil || e.CallerStep != nil || e.CurrentStep > models.StepDate {
		return false
	}
	if ws.FromChangeDetour || ws.Continuation {
		return false
	}

	ent := ws.Entities()
	if ent.DateISO == "" || e.Requirements.NumberOfParticipants == nil || e.Requirements.PreferredRoom == "" {
		return false
	}

	date, err := calendar.ParseDate(ent.DateISO)
	if err != nil || !r.calendar.Bookable(date, ws.Now) {
		return false
	}

	room, err := r.catalog.Room(e.Requirements.PreferredRoom)
	if err != nil {
		return false
	}
	participants := *e.Requirements.NumberOfParticipants
	if !room.FitsParticipants(participants) || !room.SupportsLayout(e.Requirements.SeatingLayout) {
		return false
	}
	iso := calendar.FormatISO(date)
	if !roomFree(ws.DB, room.Name, iso, e.EventID) {
		return false
	}

	display := calendar.FormatDisplay(date)
	confirmed := true
	status := models.EventStatusDateConfirmed
	step := models.StepOffer
	ws.DB.UpdateEventMetadata(e, store.EventPatch{
		CurrentStep:   &step,
		ChosenDate:    &display,
		DateConfirmed: &confirmed,
		LockedRoomID:  &room.Name,
		RoomEvalHash:  &e.RequirementsHash,
		Status:        &status,
	})
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field:  "smart_shortcut",
		To:     fmt.Sprintf("step %d", models.StepOffer),
		Detail: fmt.Sprintf("date %s, room %s, %d participants", display, room.Name, participants),
	})
	ws.Note("shortcut_bundle_complete")
	return true
}
