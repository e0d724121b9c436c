package workflow

import (
	"context"
	"fmt"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepNegotiation resolves the client's reaction to the sent offer:
// acceptance moves toward the transition summary, price pushback goes to
// a human, a decline re-opens composition.
func (r *Router) stepNegotiation(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event
	if ws.Continuation {
		return GroupResult{}, nil
	}
	if e.CurrentOffer() == nil {
		moveTo(ws, models.StepOffer)
		return GroupResult{Chain: true}, nil
	}

	// An earlier acceptance is parked on billing details; settle that
	// before reading the message as anything else.
	if e.BillingRequirements.AwaitingBillingForAccept {
		return r.resumeAcceptBilling(ws), nil
	}

	if r.offerStale(ws) {
		ws.Note("offer_stale_recomposing")
		moveTo(ws, models.StepOffer)
		return GroupResult{Chain: true}, nil
	}

	det := ws.Detection
	counter := (ws.FromChangeDetour && ws.Change != nil && ws.Change.Type == ChangeCommercial) ||
		(reCommercialTarget.MatchString(ws.StrippedBody()) && det.Signals.IsRejection)

	switch {
	case counter:
		return r.escalateNegotiation(ws), nil
	case det.Intent == models.IntentAcceptOffer || det.Signals.IsAcceptance:
		return r.acceptOffer(ws), nil
	case det.Intent == models.IntentDeclineOffer || det.Signals.IsRejection:
		return r.declineOffer(ws), nil
	case det.Signals.IsQuestion:
		return r.offerRecap(ws, ActionQnAAnswered), nil
	}

	setThreadState(ws, models.ThreadStateAwaitingClientResponse)
	return GroupResult{
		Action: ActionQnAAnswered,
		Drafts: []DraftSpec{ackDraft(ws, "Just checking in on the offer we sent — shall we go ahead, or would you like to adjust anything?")},
	}, nil
}

// acceptOffer marks the offer accepted and either advances to the
// transition summary or parks on billing capture when invoicing details
// are still missing.
func (r *Router) acceptOffer(ws *WorkflowState) GroupResult {
	e := ws.Event
	accepted := true
	offerStatus := "accepted"
	status := models.EventStatusAccepted
	ws.DB.UpdateEventMetadata(e, store.EventPatch{
		OfferAccepted: &accepted,
		OfferStatus:   &offerStatus,
		Status:        &status,
	})
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field: "offer_status",
		From:  "sent",
		To:    "accepted",
	})

	if missing := e.BillingDetails.MissingFields(); len(missing) > 0 {
		e.BillingRequirements.AwaitingBillingForAccept = true
		ws.DB.AppendAuditEntry(e, models.AuditEntry{
			Field:  "awaiting_billing_for_accept",
			To:     "true",
			Detail: fmt.Sprintf("missing: %v", missing),
		})
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionAcceptNeedsBilling,
			Drafts: []DraftSpec{draftBillingRequest(ws, missing)},
			Halt:   true,
		}
	}

	ws.Note(ActionOfferAccepted)
	moveTo(ws, models.StepTransition)
	return GroupResult{Chain: true}
}

// resumeAcceptBilling handles the message that arrives while an accepted
// offer waits for invoicing details.
func (r *Router) resumeAcceptBilling(ws *WorkflowState) GroupResult {
	e := ws.Event
	if missing := e.BillingDetails.MissingFields(); len(missing) > 0 {
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionAcceptNeedsBilling,
			Drafts: []DraftSpec{draftBillingRequest(ws, missing)},
			Halt:   true,
		}
	}

	e.BillingRequirements.AwaitingBillingForAccept = false
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field: "awaiting_billing_for_accept",
		From:  "true",
		To:    "false",
	})
	ws.Note(ActionBillingCaptured)
	moveTo(ws, models.StepTransition)
	return GroupResult{Chain: true}
}

// declineOffer keeps the thread alive: a plain no is an invitation to
// adjust, not a cancellation.
func (r *Router) declineOffer(ws *WorkflowState) GroupResult {
	e := ws.Event
	offerStatus := "declined"
	ws.DB.UpdateEventMetadata(e, store.EventPatch{OfferStatus: &offerStatus})
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field: "offer_status",
		From:  "sent",
		To:    "declined",
	})
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)
	return GroupResult{
		Action: ActionOfferDeclined,
		Drafts: []DraftSpec{ackDraft(ws, "Understood — what would you like us to adjust? We can look at the room, the catering, or the date.")},
	}
}

// escalateNegotiation routes a price counter to a human. The agent never
// negotiates rates on its own.
func (r *Router) escalateNegotiation(ws *WorkflowState) GroupResult {
	offer := ws.Event.CurrentOffer()
	body := fmt.Sprintf("Thank you for the feedback on our offer (%s %s). Our events team will review your request and come back to you with what we can do.",
		catalog.Currency, verbalizer.FormatAmountSwiss(offer.TotalAmount))
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)
	return GroupResult{
		Action: ActionNegotiationQueued,
		Drafts: []DraftSpec{{
			Draft: models.Draft{
				Body:             body,
				Topic:            models.TopicQnA,
				RequiresApproval: true,
			},
			Facts: eventFacts(ws),
		}},
		Halt: true,
	}
}

// offerRecap restates the standing offer without recomposing it.
func (r *Router) offerRecap(ws *WorkflowState, action string) GroupResult {
	e := ws.Event
	offer := e.CurrentOffer()
	total := offer.TotalAmount
	body := fmt.Sprintf("Of course. Your current offer for %s comes to %s:\n\n%s\n\nLet me know if you would like to proceed or adjust anything.",
		e.ChosenDate,
		verbalizer.TotalLine(total, catalog.Currency),
		verbalizer.LineItemLines(offer.LineItems, catalog.Currency))

	facts := eventFacts(ws)
	facts.LineItems = offer.LineItems
	facts.TotalAmount = &total
	facts.Currency = catalog.Currency

	setThreadState(ws, models.ThreadStateAwaitingClient)
	return GroupResult{
		Action: action,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicQnA},
			Facts: facts,
		}},
	}
}
