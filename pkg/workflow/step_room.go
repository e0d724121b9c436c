package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepRoom evaluates rooms against the requirements and the confirmed
// date. A stated preference that fits locks directly; otherwise the
// client picks from the viable list.
func (r *Router) stepRoom(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event

	if e.Requirements.NumberOfParticipants == nil {
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionRoomOptionsSent,
			Drafts: []DraftSpec{ackDraft(ws, "To find the right room: roughly how many guests are you expecting?")},
		}, nil
	}
	participants := *e.Requirements.NumberOfParticipants
	iso := chosenDateISO(e)

	viable := r.availableRooms(ws, iso)

	// A named preference wins when it holds up.
	pref := ws.Entities().RoomPreference
	if pref == "" {
		pref = e.Requirements.PreferredRoom
	}
	if pref != "" {
		room, err := r.catalog.Room(pref)
		switch {
		case err != nil:
			ws.Note("unknown_room:" + pref)
		case !room.FitsParticipants(participants):
			return r.roomDoesNotFit(ws, room, participants, viable), nil
		case !roomFree(ws.DB, room.Name, iso, e.EventID):
			return r.roomTaken(ws, room, viable), nil
		default:
			return r.lockRoom(ws, room), nil
		}
	}

	// A bare yes picks the single proposed room.
	sig := ws.Signals()
	if len(viable) == 1 && (sig.IsConfirmation || sig.IsAcceptance) {
		return r.lockRoom(ws, viable[0]), nil
	}

	switch len(viable) {
	case 0:
		return r.noRoomFits(ws, participants), nil
	case 1:
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		room := viable[0]
		body := fmt.Sprintf("For %d guests on %s we recommend %s (up to %d guests, CHF %s per day). Shall we reserve it for you?",
			participants, e.ChosenDate, room.Name, room.Capacity, verbalizer.FormatAmountSwiss(room.DayPrice))
		return GroupResult{
			Action: ActionRoomOptionsSent,
			Drafts: []DraftSpec{ackDraft(ws, body)},
		}, nil
	default:
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		var b strings.Builder
		fmt.Fprintf(&b, "For %d guests on %s these rooms work:\n\n", participants, e.ChosenDate)
		for _, room := range viable {
			fmt.Fprintf(&b, "- %s: up to %d guests, CHF %s per day\n",
				room.Name, room.Capacity, verbalizer.FormatAmountSwiss(room.DayPrice))
		}
		b.WriteString("\nWhich one would you like?")
		return GroupResult{
			Action: ActionRoomOptionsSent,
			Drafts: []DraftSpec{ackDraft(ws, b.String())},
		}, nil
	}
}

// availableRooms filters the catalog fit by date availability.
func (r *Router) availableRooms(ws *WorkflowState, iso string) []*config.RoomConfig {
	var out []*config.RoomConfig
	for _, room := range r.catalog.RoomsFor(ws.Event.Requirements) {
		if iso == "" || roomFree(ws.DB, room.Name, iso, ws.Event.EventID) {
			out = append(out, room)
		}
	}
	return out
}

// lockRoom records the choice and the requirements snapshot it was
// evaluated against, then moves on to offer composition.
func (r *Router) lockRoom(ws *WorkflowState, room *config.RoomConfig) GroupResult {
	e := ws.Event
	ws.DB.UpdateEventMetadata(e, store.EventPatch{
		LockedRoomID: &room.Name,
		RoomEvalHash: &e.RequirementsHash,
	})
	restoreOrAdvance(ws, models.StepOffer)
	return GroupResult{Action: ActionRoomLocked, Chain: true}
}

func (r *Router) roomDoesNotFit(ws *WorkflowState, room *config.RoomConfig, participants int, viable []*config.RoomConfig) GroupResult {
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)
	body := fmt.Sprintf("%s seats up to %d, which is tight for %d guests.", room.Name, room.Capacity, participants)
	if len(viable) > 0 {
		body += " " + alternativesLine(viable)
	}
	return GroupResult{Action: ActionRoomOptionsSent, Drafts: []DraftSpec{ackDraft(ws, body)}}
}

func (r *Router) roomTaken(ws *WorkflowState, room *config.RoomConfig, viable []*config.RoomConfig) GroupResult {
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)
	body := room.Name + " is already booked on your date."
	if len(viable) > 0 {
		body += " " + alternativesLine(viable)
	} else {
		body += " Would a different date work for you?"
	}
	return GroupResult{Action: ActionRoomOptionsSent, Drafts: []DraftSpec{ackDraft(ws, body)}}
}

// noRoomFits walks the flow back to the date step and flags the thread
// for the team: no room serves this headcount on the chosen date.
func (r *Router) noRoomFits(ws *WorkflowState, participants int) GroupResult {
	e := ws.Event
	r.enqueueManualReview(ws, fmt.Sprintf("no room fits %d participants on %s", participants, e.ChosenDate))

	target := models.StepDate
	confirmed := false
	patch := store.EventPatch{CurrentStep: &target, DateConfirmed: &confirmed}
	if e.CallerStep == nil {
		caller := models.StepRoom
		patch.CallerStep = &caller
	}
	ws.DB.UpdateEventMetadata(e, patch)
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	dates := r.candidateISODates(ws.Now.AddDate(0, 0, 7), 3)
	body := fmt.Sprintf("On %s we cannot seat %d guests in any of our rooms. "+
		"On these days we could:\n\n%s\n\nAlternatively, would a smaller group be an option?",
		e.ChosenDate, participants, verbalizer.BulletDates(dates))
	return GroupResult{
		Action: ActionNoRoomAvailable,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicRoomProposal},
			Facts: &verbalizer.Facts{Language: ws.Language(), CandidateDates: dates, Participants: &participants},
		}},
	}
}

func alternativesLine(viable []*config.RoomConfig) string {
	names := make([]string, 0, len(viable))
	for _, room := range viable {
		names = append(names, room.Name)
	}
	return "Available alternatives: " + strings.Join(names, ", ") + "."
}
