package workflow

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// reTentative matches a request to hold the date without committing.
var reTentative = regexp.MustCompile(`(?i)\b(?:hold|pencil|tentative|tentatively|unverbindlich|provisionally|for\s+now)\b`)

// stepConfirmation closes the booking. Nothing is confirmed while the
// invoice address is incomplete, and a configured deposit is demanded
// before the final word goes out.
func (r *Router) stepConfirmation(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event
	if ws.Continuation {
		return GroupResult{}, nil
	}

	// A confirmation parked on billing resumes here whatever else the
	// message says.
	if e.BillingRequirements.AwaitingBillingForConfirmation {
		return r.resumeConfirmBilling(ws), nil
	}

	if r.offerStale(ws) {
		ws.Note("offer_stale_recomposing")
		moveTo(ws, models.StepOffer)
		return GroupResult{Chain: true}, nil
	}

	if ws.Msg.DepositJustPaid || reDepositPaidCtx.MatchString(ws.StrippedBody()) {
		return r.depositPaid(ws), nil
	}

	// Deposit terms are venue policy; a request to change them goes to a
	// human instead of being argued by the agent.
	if ws.FromChangeDetour && ws.Change != nil && ws.Change.Type == ChangeDeposit {
		r.enqueueManualReview(ws, "client asked to change deposit terms")
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionManualReview,
			Drafts: []DraftSpec{ackDraft(ws, "Thank you for your note on the deposit — our events team will review it and get back to you shortly.")},
			Halt:   true,
		}, nil
	}

	det := ws.Detection
	switch {
	case reTentative.MatchString(ws.StrippedBody()):
		return r.reserveTentative(ws), nil
	case det.Signals.IsConfirmation || det.Signals.IsAcceptance ||
		det.Intent == models.IntentConfirmDate || det.Intent == models.IntentAcceptOffer:
		return r.confirmBooking(ws), nil
	case det.Signals.IsRejection || det.Intent == models.IntentDeclineOffer:
		e.ConfirmationState.LastResponseType = "decline"
		moveTo(ws, models.StepNegotiation)
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionOfferDeclined,
			Drafts: []DraftSpec{ackDraft(ws, "No problem — tell us what you would like to change and we will rework the offer.")},
		}, nil
	}

	e.ConfirmationState.LastResponseType = "other"
	return r.confirmationRecap(ws), nil
}

// confirmBooking takes the client's yes. Billing completeness is the
// hard gate: without an invoice address the confirmation waits.
func (r *Router) confirmBooking(ws *WorkflowState) GroupResult {
	e := ws.Event
	if missing := e.BillingDetails.MissingFields(); len(missing) > 0 {
		e.BillingRequirements.AwaitingBillingForConfirmation = true
		e.ConfirmationState.Pending = &models.PendingConfirmation{Kind: "final_confirmation"}
		ws.DB.AppendAuditEntry(e, models.AuditEntry{
			Field:  "awaiting_billing_for_confirmation",
			To:     "true",
			Detail: fmt.Sprintf("missing: %v", missing),
		})
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionConfirmNeedsBilling,
			Drafts: []DraftSpec{draftBillingRequest(ws, missing)},
			Halt:   true,
		}
	}
	return r.finalizeBooking(ws, false)
}

// resumeConfirmBilling re-runs the parked confirmation once the invoice
// address arrives in full.
func (r *Router) resumeConfirmBilling(ws *WorkflowState) GroupResult {
	e := ws.Event
	if missing := e.BillingDetails.MissingFields(); len(missing) > 0 {
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionConfirmNeedsBilling,
			Drafts: []DraftSpec{draftBillingRequest(ws, missing)},
			Halt:   true,
		}
	}

	e.BillingRequirements.AwaitingBillingForConfirmation = false
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field: "awaiting_billing_for_confirmation",
		From:  "true",
		To:    "false",
	})
	ws.Note(ActionBillingCaptured)
	return r.finalizeBooking(ws, false)
}

// depositPaid books the event on the client's word that the deposit went
// out. Payment implies intent, so the finalization skips the approval
// gate.
func (r *Router) depositPaid(ws *WorkflowState) GroupResult {
	e := ws.Event
	if !e.DepositInfo.Paid {
		e.DepositInfo.Paid = true
		ws.DB.AppendAuditEntry(e, models.AuditEntry{
			Field: "deposit_paid",
			From:  "false",
			To:    "true",
		})
	}
	ws.Note(ActionDepositPaid)
	return r.finalizeBooking(ws, true)
}

// reserveTentative holds the date without confirming. The booking stays
// at the final step until the client commits or walks.
func (r *Router) reserveTentative(ws *WorkflowState) GroupResult {
	e := ws.Event
	e.ConfirmationState.Pending = &models.PendingConfirmation{Kind: "final_confirmation"}
	e.ConfirmationState.LastResponseType = "reserve"
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field: "confirmation_state",
		To:    "tentative_hold",
	})
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	body := fmt.Sprintf("Of course — we will hold %s for you without obligation. Just send a short confirmation when you are ready and we will make it official.", e.ChosenDate)
	return GroupResult{
		Action: ActionTentativeReserved,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicQnA},
			Facts: eventFacts(ws),
		}},
	}
}

// finalizeBooking either demands the configured deposit or confirms the
// event outright. skipGate bypasses the approval queue for the final
// message when a deposit payment already proved intent.
func (r *Router) finalizeBooking(ws *WorkflowState, skipGate bool) GroupResult {
	e := ws.Event

	if ws.Settings.GlobalDeposit.DepositEnabled && !e.DepositInfo.Paid {
		return r.requestDeposit(ws)
	}

	status := models.EventStatusConfirmed
	offerStatus := "confirmed"
	patch := store.EventPatch{Status: &status}
	if e.CurrentOffer() != nil {
		patch.OfferStatus = &offerStatus
	}
	ws.DB.UpdateEventMetadata(e, patch)
	e.ConfirmationState.Pending = nil
	e.ConfirmationState.LastResponseType = "confirm"
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field: "status",
		To:    string(models.EventStatusConfirmed),
	})
	setThreadState(ws, models.ThreadStateConfirmed)

	participants := 0
	if e.Requirements.NumberOfParticipants != nil {
		participants = *e.Requirements.NumberOfParticipants
	}
	body := fmt.Sprintf("Your booking is confirmed! We look forward to hosting you on %s in %s for %d guests.", e.ChosenDate, e.LockedRoomID, participants)
	facts := eventFacts(ws)
	if offer := e.CurrentOffer(); offer != nil {
		total := offer.TotalAmount
		body += fmt.Sprintf(" The agreed total is %s.", verbalizer.TotalLine(total, catalog.Currency))
		facts.TotalAmount = &total
		facts.Currency = catalog.Currency
	}
	if e.SiteVisitState.Status == models.SiteVisitIdle || e.SiteVisitState.Status == "" {
		body += " If you would like to see the rooms beforehand, we would be happy to arrange a site visit."
	}
	body += " A written confirmation with all details follows."

	return GroupResult{
		Action: ActionBookingConfirmed,
		Drafts: []DraftSpec{{
			Draft:    models.Draft{Body: body, Topic: models.TopicFinalContractSent},
			Facts:    facts,
			SkipGate: skipGate,
		}},
		Halt: true,
	}
}

// requestDeposit computes the deposit if not yet set and asks for it.
// The confirmation stays pending until the payment is reported.
func (r *Router) requestDeposit(ws *WorkflowState) GroupResult {
	e := ws.Event
	if !e.DepositInfo.Required {
		offer := e.CurrentOffer()
		if offer == nil {
			// Nothing priced to take a share of; confirm without one.
			return r.finalizeNoDeposit(ws)
		}
		cfg := ws.Settings.GlobalDeposit
		amount := cfg.DepositFixedAmount
		if cfg.DepositType == models.DepositTypePercentage {
			amount = math.Round(offer.TotalAmount*cfg.DepositPercentage) / 100 // cents precision
		}
		e.DepositInfo = models.DepositInfo{
			Required: true,
			Type:     cfg.DepositType,
			Amount:   amount,
			DueDate:  calendar.FormatISO(ws.Now.AddDate(0, 0, cfg.DepositDeadlineDays)),
			Paid:     false,
		}
		ws.DB.AppendAuditEntry(e, models.AuditEntry{
			Field:  "deposit_info",
			To:     fmt.Sprintf("%.2f due %s", amount, e.DepositInfo.DueDate),
			Detail: string(cfg.DepositType),
		})
	}
	e.ConfirmationState.Pending = &models.PendingConfirmation{Kind: "deposit"}
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	amount := e.DepositInfo.Amount
	body := fmt.Sprintf("Thank you for confirming! One last step: %s Once it arrives, your booking is final and we will send the written confirmation.",
		verbalizer.DepositLine(amount, catalog.Currency, e.DepositInfo.DueDate))

	facts := eventFacts(ws)
	facts.DepositAmount = &amount
	facts.DepositDueISO = e.DepositInfo.DueDate
	facts.Currency = catalog.Currency

	return GroupResult{
		Action: ActionDepositRequested,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicDepositRequest},
			Facts: facts,
		}},
		Halt: true,
	}
}

// finalizeNoDeposit confirms when deposit policy is on but there is no
// offer total to derive one from.
func (r *Router) finalizeNoDeposit(ws *WorkflowState) GroupResult {
	e := ws.Event
	r.logger.Warn("deposit enabled but no offer to price it from",
		"event_id", e.EventID)
	e.DepositInfo.Paid = true
	return r.finalizeBooking(ws, false)
}

// confirmationRecap restates what a yes would confirm.
func (r *Router) confirmationRecap(ws *WorkflowState) GroupResult {
	e := ws.Event
	body := fmt.Sprintf("Happy to help. To recap: %s in %s", e.ChosenDate, e.LockedRoomID)
	facts := eventFacts(ws)
	if offer := e.CurrentOffer(); offer != nil {
		total := offer.TotalAmount
		body += fmt.Sprintf(", %s", verbalizer.TotalLine(total, catalog.Currency))
		facts.TotalAmount = &total
		facts.Currency = catalog.Currency
	}
	body += ". Reply with a short confirmation and we will finalize everything."
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)
	return GroupResult{
		Action: ActionQnAAnswered,
		Drafts: []DraftSpec{{
			Draft: models.Draft{Body: body, Topic: models.TopicQnA},
			Facts: facts,
		}},
	}
}
