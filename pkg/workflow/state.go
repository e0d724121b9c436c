// Package workflow implements the seven-step booking state machine: one
// router that turns each inbound client message into detection, change
// routing, a step handler run, drafts, and a persisted event mutation.
package workflow

import (
	"strings"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/prefilter"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// Result actions. The router reports exactly one primary action per
// message; everything else lands in the actions list.
const (
	ActionEventCreated        = "event_created"
	ActionSmartShortcut       = "smart_shortcut_to_offer"
	ActionChangeDetour        = "change_detour"
	ActionStructuralDetour    = "structural_change_detour"
	ActionChangeNoop          = "change_noop"
	ActionDuplicateReplay     = "duplicate_replay"
	ActionDevChoiceRequired   = "dev_choice_required"
	ActionManualReview        = "manual_review_enqueued"
	ActionStandaloneQnA       = "standalone_qna"
	ActionNonEventIgnored     = "non_event_ignored"
	ActionFallback            = "fallback"
	ActionDateOptionsSent     = "date_options_sent"
	ActionDateProposed        = "date_change_proposed"
	ActionDateConfirmed       = "date_confirmed"
	ActionDateUnavailable     = "date_unavailable"
	ActionRoomOptionsSent     = "room_options_sent"
	ActionRoomLocked          = "room_locked"
	ActionNoRoomAvailable     = "no_room_available"
	ActionOfferSent           = "offer_sent"
	ActionOfferPending        = "offer_pending_details"
	ActionOfferRevised        = "offer_revised"
	ActionOfferDeclined       = "offer_declined"
	ActionOfferAccepted       = "offer_accepted"
	ActionAcceptNeedsBilling  = "offer_accept_pending_billing"
	ActionBillingCaptured     = "billing_captured"
	ActionConfirmNeedsBilling = "confirmation_pending_billing"
	ActionNegotiationQueued   = "negotiation_escalated"
	ActionTransitionPending   = "transition_pending_approval"
	ActionAdvancedToConfirm   = "advanced_to_confirmation"
	ActionBookingConfirmed    = "booking_confirmed"
	ActionDepositRequested    = "deposit_requested"
	ActionDepositPaid         = "deposit_paid"
	ActionTentativeReserved   = "tentative_reserved"
	ActionCancelled           = "cancellation_confirmed"
	ActionQnAAnswered         = "qna_answered"
	ActionResumed             = "workflow_resumed"
	ActionVisitDatesSent      = "site_visit_dates_proposed"
	ActionVisitSlotsSent      = "site_visit_slots_proposed"
	ActionVisitConfirming     = "site_visit_confirm_pending"
	ActionVisitScheduled      = "site_visit_scheduled"
	ActionNoop                = "noop"
)

// minAutoConfidence is the floor below which a classified message is not
// auto-processed and goes to manual review instead.
const minAutoConfidence = 0.45

// DraftSpec pairs a deterministic draft with the facts the verbalizer
// must preserve when polishing it. A nil Facts means the body is final.
type DraftSpec struct {
	Draft models.Draft
	Facts *verbalizer.Facts
	// SkipGate sends the draft directly even when approval mode would
	// gate its topic. Set for finalizations a deposit payment implies.
	SkipGate bool
}

// GroupResult is what one step handler hands back to the router.
type GroupResult struct {
	Action string
	Drafts []DraftSpec
	// Halt stops the cycle before (further) step dispatch.
	Halt bool
	// Chain re-dispatches the handler for the event's new current step
	// within the same message cycle.
	Chain bool
	// DevChoice is the open-events disambiguation payload.
	DevChoice *models.DevChoice
}

// WorkflowState is the per-message working set every handler receives.
type WorkflowState struct {
	Msg       *models.InboundMessage
	DB        *store.Database
	Client    *models.Client
	Event     *models.Event
	Detection *models.UnifiedDetection
	Settings  models.Settings
	Scan      prefilter.Result
	Guards    GuardSnapshot
	Change    *ChangeDecision
	Now       time.Time

	// Continuation marks the synthetic resume message injected after a
	// gated draft was approved.
	Continuation bool
	// FromChangeDetour tells the target handler it runs because a
	// confirmed variable is being revised, not on first contact.
	FromChangeDetour bool

	// Actions collects secondary action notes for the result.
	Actions []string
	// Captured lists the event fields entity capture changed this cycle.
	Captured []string

	stripped     string
	strippedOnce bool
}

// Note records a secondary action on the result.
func (ws *WorkflowState) Note(action string) {
	ws.Actions = append(ws.Actions, action)
}

// StrippedBody returns the message body with quoted reply history removed.
func (ws *WorkflowState) StrippedBody() string {
	if !ws.strippedOnce {
		ws.stripped = prefilter.StripQuoted(ws.Msg.Body)
		ws.strippedOnce = true
	}
	return ws.stripped
}

// Language returns the detected client language, falling back to the
// pre-filter hint and then English.
func (ws *WorkflowState) Language() string {
	if ws.Detection != nil && ws.Detection.Language != "" {
		return ws.Detection.Language
	}
	if ws.Scan.LanguageHint != "" {
		return ws.Scan.LanguageHint
	}
	return "en"
}

// Intent returns the detected intent, empty for continuation cycles.
func (ws *WorkflowState) Intent() models.Intent {
	if ws.Detection == nil {
		return ""
	}
	return ws.Detection.Intent
}

// Entities returns the detected entities, zero-valued when detection was
// skipped.
func (ws *WorkflowState) Entities() models.Entities {
	if ws.Detection == nil {
		return models.Entities{}
	}
	return ws.Detection.Entities
}

// Signals returns the detected signals, zero-valued when detection was
// skipped.
func (ws *WorkflowState) Signals() models.Signals {
	if ws.Detection == nil {
		return models.Signals{}
	}
	return ws.Detection.Signals
}

// HasQnAType reports whether detection tagged the message with the given
// question topic.
func (ws *WorkflowState) HasQnAType(topic string) bool {
	if ws.Detection == nil {
		return false
	}
	for _, t := range ws.Detection.QnATypes {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}
