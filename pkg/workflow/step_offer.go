package workflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hashutil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepOffer composes the priced offer from the locked room, the
// requirements, and the selected products. A reply that changes nothing
// commercially belongs to negotiation and is passed on.
func (r *Router) stepOffer(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	e := ws.Event
	if ws.Continuation {
		return GroupResult{}, nil
	}

	if e.Requirements.NumberOfParticipants == nil {
		setThreadState(ws, models.ThreadStateAwaitingClientResponse)
		return GroupResult{
			Action: ActionOfferPending,
			Drafts: []DraftSpec{ackDraft(ws, "Before we price your event: roughly how many guests should we plan for?")},
		}, nil
	}
	participants := *e.Requirements.NumberOfParticipants

	room, err := r.catalog.Room(e.LockedRoomID)
	if err != nil {
		// The locked room vanished from the catalog; re-evaluate rooms.
		r.logger.Warn("locked room missing from catalog",
			"event_id", e.EventID,
			"room", e.LockedRoomID)
		ws.Note("locked_room_unknown")
		ws.DB.UpdateEventMetadata(e, store.EventPatch{ClearRoomLock: true})
		moveTo(ws, models.StepRoom)
		return GroupResult{Chain: true}, nil
	}

	items, unresolved := r.catalog.ComposeLineItems(room, participants, offerMentions(e))
	if len(unresolved) > 0 {
		return r.askAboutProducts(ws, unresolved), nil
	}

	// An unchanged offer means the reply is a negotiation move, not a
	// composition request.
	h := hashutil.OfferHash(items)
	if e.CurrentOffer() != nil && e.OfferHash == h && !ws.FromChangeDetour {
		moveTo(ws, models.StepNegotiation)
		return GroupResult{Chain: true}, nil
	}

	return r.sendOffer(ws, room.Name, participants, items, h), nil
}

// offerMentions gathers every product the client has picked, including a
// standalone menu choice.
func offerMentions(e *models.Event) []string {
	mentions := append([]string(nil), e.SelectedProducts...)
	if e.MenuChoice != "" {
		mentions = append(mentions, e.MenuChoice)
	}
	return mentions
}

// sendOffer appends a new offer, rebinds the commercial state to it, and
// drafts the client prose plus the manager-panel summary. A revision
// voids any earlier acceptance: the new numbers need a fresh yes.
func (r *Router) sendOffer(ws *WorkflowState, roomName string, participants int, items []models.LineItem, offerHash string) GroupResult {
	e := ws.Event
	revision := len(e.Offers) > 0

	offer := models.Offer{
		OfferID:     e.NextOfferID(),
		TotalAmount: catalog.Total(items),
		LineItems:   items,
		CreatedAt:   ws.Now,
	}
	e.Offers = append(e.Offers, offer)

	accepted := false
	offerStatus := "sent"
	status := models.EventStatusOfferSent
	patch := store.EventPatch{
		CurrentOfferID: &offer.OfferID,
		OfferHash:      &offerHash,
		OfferAccepted:  &accepted,
		OfferStatus:    &offerStatus,
		Status:         &status,
	}
	if e.CallerStep != nil {
		// The revised offer replaces whatever the caller step was
		// waiting on; it needs a fresh acceptance from step 4.
		patch.ClearCallerStep = true
	}
	ws.DB.UpdateEventMetadata(e, patch)
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field:  "offer",
		To:     strconv.Itoa(offer.OfferID),
		Detail: fmt.Sprintf("%d line items, total %.2f", len(items), offer.TotalAmount),
	})
	setThreadState(ws, models.ThreadStateAwaitingClient)

	action := ActionOfferSent
	lead := "Here is our offer for your event"
	if revision {
		action = ActionOfferRevised
		lead = "Here is your updated offer"
	}

	total := offer.TotalAmount
	body := fmt.Sprintf("%s on %s in %s for %d guests:\n\n%s\n\n%s\n\nShall we proceed on this basis?",
		lead, e.ChosenDate, roomName, participants,
		verbalizer.LineItemLines(items, catalog.Currency),
		verbalizer.TotalLine(total, catalog.Currency))

	facts := eventFacts(ws)
	facts.LineItems = items
	facts.TotalAmount = &total
	facts.Currency = catalog.Currency

	return GroupResult{
		Action: action,
		Drafts: []DraftSpec{
			{
				Draft: models.Draft{Body: body, Topic: models.TopicOfferSent},
				Facts: facts,
			},
			managerOfferSummary(e, offer, roomName, participants),
		},
	}
}

// askAboutProducts holds offer composition until the unmatched product
// mentions are settled; guessing a paid item onto an offer is worse than
// one extra round trip.
func (r *Router) askAboutProducts(ws *WorkflowState, unresolved []string) GroupResult {
	setThreadState(ws, models.ThreadStateAwaitingClientResponse)

	var names []string
	for _, p := range r.catalog.Products() {
		names = append(names, p.Name)
	}
	body := fmt.Sprintf("Almost there — we could not match %q to our catalog. We offer: %s. Which should we include?",
		strings.Join(unresolved, ", "), strings.Join(names, ", "))
	return GroupResult{
		Action: ActionOfferPending,
		Drafts: []DraftSpec{ackDraft(ws, body)},
	}
}

// managerOfferSummary is the ops-panel recap: tabular line items, never
// sent to the client and never polished.
func managerOfferSummary(e *models.Event, offer models.Offer, roomName string, participants int) DraftSpec {
	rows := make([][]string, 0, len(offer.LineItems)+1)
	for _, it := range offer.LineItems {
		rows = append(rows, []string{
			it.Description,
			strconv.Itoa(it.Quantity),
			it.Unit.Display(),
			verbalizer.FormatAmountSwiss(it.UnitPrice),
			verbalizer.FormatAmountSwiss(it.Total),
		})
	}
	rows = append(rows, []string{"Total", "", "", "", verbalizer.FormatAmountSwiss(offer.TotalAmount)})

	body := fmt.Sprintf("Offer %d for %s: %s, %d guests, %s %s.",
		offer.OfferID, e.ClientID, roomName, participants,
		catalog.Currency, verbalizer.FormatAmountSwiss(offer.TotalAmount))
	return DraftSpec{
		Draft: models.Draft{
			Body:  body,
			Topic: models.TopicOfferSummary,
			TableBlocks: []models.TableBlock{{
				Title:   fmt.Sprintf("Offer %d — %s", offer.OfferID, e.ChosenDate),
				Columns: []string{"Item", "Qty", "Unit", "Unit price", "Total"},
				Rows:    rows,
			}},
		},
	}
}

// offerStale reports whether the current offer no longer matches a fresh
// composition of the event's inputs. Detours that changed requirements
// or products re-run composition before any acceptance can stand.
func (r *Router) offerStale(ws *WorkflowState) bool {
	e := ws.Event
	if e.CurrentOffer() == nil || e.Requirements.NumberOfParticipants == nil {
		return false
	}
	room, err := r.catalog.Room(e.LockedRoomID)
	if err != nil {
		return false
	}
	items, unresolved := r.catalog.ComposeLineItems(room, *e.Requirements.NumberOfParticipants, offerMentions(e))
	if len(unresolved) > 0 {
		return true
	}
	return hashutil.OfferHash(items) != e.OfferHash
}
