package workflow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// ChangeType names which already-confirmed variable a message revises.
type ChangeType string

const (
	ChangeDate         ChangeType = "DATE"
	ChangeRoom         ChangeType = "ROOM"
	ChangeRequirements ChangeType = "REQUIREMENTS"
	ChangeProducts     ChangeType = "PRODUCTS"
	ChangeCommercial   ChangeType = "COMMERCIAL"
	ChangeDeposit      ChangeType = "DEPOSIT"
	ChangeSiteVisit    ChangeType = "SITE_VISIT"
	ChangeClientInfo   ChangeType = "CLIENT_INFO"
)

// changeOwner maps a change type to the step that owns the variable.
// Site-visit and client-info changes are handled in place and carry no
// owner step.
var changeOwner = map[ChangeType]int{
	ChangeDate:         models.StepDate,
	ChangeRoom:         models.StepRoom,
	ChangeRequirements: models.StepRoom,
	ChangeProducts:     models.StepOffer,
	ChangeCommercial:   models.StepNegotiation,
	ChangeDeposit:      models.StepConfirmation,
}

// ChangeDecision is the outcome of change detection for one message.
type ChangeDecision struct {
	Type      ChangeType
	OwnerStep int
	// InPlace changes never detour: site-visit scheduling and billing
	// updates run wherever the event currently stands.
	InPlace bool
	// SkipReason is set when a detected change needs no re-evaluation.
	SkipReason string
	Detail     string
}

// Change detection runs on the quote-stripped body only: restating a
// confirmed value inside quoted reply history is not a revision.
var (
	reRevisionVerb = regexp.MustCompile(`(?i)\b(?:change|move|moves?|moving|switch|shift|reschedul\w*|postpon\w*|push(?:ed)?\s+(?:back|to)|bring\s+forward|update|revise|swap|replace|make\s+it|instead|rather\s+than|verschieben|verlegen|[äa]ndern|umbuchen|tauschen|d[ée]placer|changer|reporter|spostare|cambiare)\b`)

	reDateTarget        = regexp.MustCompile(`(?i)\b(?:date|day|datum|termin|appointment)\b|\b\d{1,2}\.\d{1,2}\.\d{4}\b|\b\d{4}-\d{2}-\d{2}\b`)
	reRoomTarget        = regexp.MustCompile(`(?i)\b(?:room|raum|saal|salle|sala|hall|space)\b`)
	reRequirementTarget = regexp.MustCompile(`(?i)\b(?:participants?|people|persons?|guests?|attendees?|headcount|head\s+count|teilnehmer|personen|g[äa]ste|invit[ée]s|layout|seating|bestuhlung)\b`)
	reProductTarget     = regexp.MustCompile(`(?i)\b(?:catering|menu|men[üu]|lunch|dinner|coffee|kaffee|apero|ap[ée]ro|equipment|projector|beamer|technician|lighting|products?)\b`)
	reCommercialTarget  = regexp.MustCompile(`(?i)\b(?:price|pricing|cost|total|amount|discount|rabatt|cheaper|budget|conditions?|terms|prix|preis)\b`)
	reDepositTarget     = regexp.MustCompile(`(?i)\b(?:deposit|anzahlung|down\s*payment|acompte)\b`)
	reVisitTarget       = regexp.MustCompile(`(?i)\bsite\s+visit\b|\bbesichtigung\b|\bviewing\b|\bvenue\s+tour\b|\bvisit\s+the\s+(?:venue|room|space)\b|\bcome\s+by\b|\bsee\s+the\s+(?:venue|room|space)\b`)

	// A date mentioned while reporting a payment is a payment date, not
	// an event-date revision.
	reDepositPaidCtx = regexp.MustCompile(`(?i)\b(?:deposit|anzahlung|acompte)\b[\s\S]{0,80}\b(?:paid|payed|transferred|wired|sent|settled|[üu]berwiesen|bezahlt|vers[ée])\b|\b(?:paid|transferred|wired|[üu]berwiesen|bezahlt)\b[\s\S]{0,80}\b(?:deposit|anzahlung|acompte)\b`)
)

// detectChange decides whether the message revises an already-confirmed
// variable and, if so, which one. Both the classifier signal and a local
// lexical check must agree before anything detours.
func detectChange(ws *WorkflowState) *ChangeDecision {
	e := ws.Event
	if e == nil || ws.Continuation {
		return nil
	}
	sig := ws.Signals()
	if !sig.IsChangeRequest && ws.Intent() != models.IntentChangeRequest {
		return nil
	}
	body := ws.StrippedBody()
	if !reRevisionVerb.MatchString(body) {
		return nil
	}

	target, ok := classifyChangeTarget(ws, body)
	if !ok {
		return nil
	}

	d := &ChangeDecision{Type: target, Detail: changeDetail(ws, target)}
	switch target {
	case ChangeSiteVisit, ChangeClientInfo:
		d.InPlace = true
	case ChangeRequirements:
		d.OwnerStep = changeOwner[target]
		// Capture already merged the new values and recomputed the
		// hash; identical hashes mean nothing material changed.
		if e.RoomEvalHash != "" && e.RoomEvalHash == e.RequirementsHash {
			d.SkipReason = "hash_match"
		}
	default:
		d.OwnerStep = changeOwner[target]
	}
	return d
}

// classifyChangeTarget picks the revised variable by lexical specificity,
// then keeps it only when that variable is actually bound on the event.
func classifyChangeTarget(ws *WorkflowState, body string) (ChangeType, bool) {
	e := ws.Event
	ent := ws.Entities()

	depositPayment := reDepositPaidCtx.MatchString(body)

	switch {
	case reVisitTarget.MatchString(body):
		if e.SiteVisitState.Status.Pending() || e.SiteVisitState.Status == models.SiteVisitScheduled {
			return ChangeSiteVisit, true
		}
	case reDepositTarget.MatchString(body) && !depositPayment:
		if e.DepositInfo.Required {
			return ChangeDeposit, true
		}
	case len(ent.ProductsAdd) > 0 || len(ent.ProductsRemove) > 0 || reProductTarget.MatchString(body):
		if len(e.Offers) > 0 || len(e.SelectedProducts) > 0 {
			return ChangeProducts, true
		}
	case ent.RoomPreference != "" || reRoomTarget.MatchString(body):
		if e.LockedRoomID != "" {
			return ChangeRoom, true
		}
	case reCommercialTarget.MatchString(body):
		if e.CurrentOfferID != 0 {
			return ChangeCommercial, true
		}
	case reRequirementTarget.MatchString(body):
		if e.LockedRoomID != "" || len(e.Offers) > 0 {
			return ChangeRequirements, true
		}
	case (ent.DateISO != "" || ent.DateText != "" || reDateTarget.MatchString(body)) && !depositPayment:
		if e.DateConfirmed {
			return ChangeDate, true
		}
	case ent.BillingAddress != nil:
		return ChangeClientInfo, true
	}
	return "", false
}

func changeDetail(ws *WorkflowState, t ChangeType) string {
	ent := ws.Entities()
	switch t {
	case ChangeDate:
		if ent.DateISO != "" {
			return "new date " + ent.DateISO
		}
		return "date revision"
	case ChangeRoom:
		if ent.RoomPreference != "" {
			return "new room " + ent.RoomPreference
		}
		return "room revision"
	case ChangeRequirements:
		if ent.Participants != nil {
			return fmt.Sprintf("participants now %d", *ent.Participants)
		}
		return "requirements revision"
	case ChangeProducts:
		var parts []string
		if len(ent.ProductsAdd) > 0 {
			parts = append(parts, "add "+strings.Join(ent.ProductsAdd, ", "))
		}
		if len(ent.ProductsRemove) > 0 {
			parts = append(parts, "remove "+strings.Join(ent.ProductsRemove, ", "))
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
		return "product revision"
	default:
		return strings.ToLower(string(t)) + " revision"
	}
}

// applyChangeDetour mutates the event per the change routing table and
// returns the primary action. Date changes invalidate the room lock; the
// flow heals forward from step 2 and returns to the caller step.
func (r *Router) applyChangeDetour(ws *WorkflowState, d *ChangeDecision) string {
	e := ws.Event
	if d.SkipReason != "" {
		ws.Note("change_skipped:" + d.SkipReason)
		return ActionChangeNoop
	}

	detoursTotal.WithLabelValues(string(d.Type)).Inc()

	target := d.OwnerStep
	cur := e.CurrentStep
	patch := store.EventPatch{}

	if target < cur {
		patch.CurrentStep = &target
		if e.CallerStep == nil {
			caller := cur
			patch.CallerStep = &caller
		}
	} else if target == cur {
		// Revision of the variable the current step is working on; the
		// handler re-runs with the new values.
	} else {
		// A forward owner step while a detour is active: the capture is
		// done, the owner re-runs when the flow passes it again.
		ws.Note("change_queued:" + strings.ToLower(string(d.Type)))
		return ActionChangeNoop
	}

	if d.Type == ChangeDate {
		f := false
		patch.DateConfirmed = &f
		patch.ClearRoomLock = true
	}
	ws.DB.UpdateEventMetadata(e, patch)
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field:  "change_detour",
		From:   fmt.Sprintf("step %d", cur),
		To:     fmt.Sprintf("step %d", e.CurrentStep),
		Detail: fmt.Sprintf("%s: %s", d.Type, d.Detail),
	})
	ws.FromChangeDetour = true

	switch d.Type {
	case ChangeRoom, ChangeRequirements:
		return ActionStructuralDetour
	default:
		return ActionChangeDetour
	}
}
