package workflow

import (
	"context"
	"fmt"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepTransition bridges the accepted offer and the final confirmation:
// it recaps everything agreed so far in one message. With approval mode
// on, that message waits in the queue and the workflow resumes here once
// a reviewer releases it.
func (r *Router) stepTransition(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event

	// A continuation means the reviewer approved the transition message;
	// it is on its way to the client, so the booking moves on.
	if ws.Continuation {
		moveTo(ws, models.StepConfirmation)
		setThreadState(ws, models.ThreadStateAwaitingClient)
		return GroupResult{Action: ActionAdvancedToConfirm, Halt: true}, nil
	}

	if e.CurrentOffer() == nil {
		moveTo(ws, models.StepOffer)
		return GroupResult{Chain: true}, nil
	}
	if !e.OfferAccepted {
		moveTo(ws, models.StepNegotiation)
		return GroupResult{Chain: true}, nil
	}
	if r.offerStale(ws) {
		ws.Note("offer_stale_recomposing")
		moveTo(ws, models.StepOffer)
		return GroupResult{Chain: true}, nil
	}
	if missing := e.BillingDetails.MissingFields(); len(missing) > 0 {
		e.BillingRequirements.AwaitingBillingForAccept = true
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionAcceptNeedsBilling,
			Drafts: []DraftSpec{draftBillingRequest(ws, missing)},
			Halt:   true,
		}, nil
	}

	// Do not pile up a second handoff draft while one sits in the queue.
	for _, t := range ws.DB.PendingTasks() {
		if t.EventID == e.EventID && t.Type == models.TaskTransitionMessage {
			return GroupResult{
				Action: ActionTransitionPending,
				Drafts: []DraftSpec{ackDraft(ws, "We are preparing the final summary of your booking and will send it over shortly.")},
				Halt:   true,
			}, nil
		}
	}

	spec := r.transitionDraft(ws)
	if ws.Settings.HILMode.Enabled {
		// The draft gets gated downstream; the event stays here until
		// the approval continuation advances it.
		return GroupResult{
			Action: ActionTransitionPending,
			Drafts: []DraftSpec{spec},
			Halt:   true,
		}, nil
	}

	moveTo(ws, models.StepConfirmation)
	setThreadState(ws, models.ThreadStateAwaitingClient)
	return GroupResult{
		Action: ActionAdvancedToConfirm,
		Drafts: []DraftSpec{spec},
		Halt:   true,
	}, nil
}

// transitionDraft recaps the accepted booking ahead of final confirmation.
func (r *Router) transitionDraft(ws *WorkflowState) DraftSpec {
	e := ws.Event
	offer := e.CurrentOffer()
	total := offer.TotalAmount
	participants := 0
	if e.Requirements.NumberOfParticipants != nil {
		participants = *e.Requirements.NumberOfParticipants
	}

	body := fmt.Sprintf("Wonderful — here is where we stand:\n\n- Date: %s\n- Room: %s\n- Guests: %d\n- %s\n\nTo make it official, please reply with a short confirmation and we will finalize your booking.",
		e.ChosenDate, e.LockedRoomID, participants,
		verbalizer.TotalLine(total, catalog.Currency))
	if ws.Settings.GlobalDeposit.DepositEnabled && !e.DepositInfo.Paid {
		body += "\n\nPlease note: a deposit will be due to secure the date; details follow with the confirmation."
	}

	facts := eventFacts(ws)
	facts.TotalAmount = &total
	facts.Currency = catalog.Currency

	return DraftSpec{
		Draft: models.Draft{Body: body, Topic: models.TopicTransitionMessage},
		Facts: facts,
	}
}
