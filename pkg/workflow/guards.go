package workflow

import (
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// GuardSnapshot is the precondition read taken before dispatch. A forced
// step means the event sits past a step whose output is missing or stale;
// the router walks it back there with a caller marker so the flow heals
// itself and then returns.
type GuardSnapshot struct {
	ForcedStep int    `json:"forced_step,omitempty"`
	Reason     string `json:"reason,omitempty"`

	HashMismatch      bool `json:"hash_mismatch,omitempty"`
	BillingFlowActive bool `json:"billing_flow_active,omitempty"`
	SiteVisitActive   bool `json:"site_visit_active,omitempty"`
}

// Guard reasons surfaced in traces and metrics.
const (
	guardDateNotConfirmed = "date_not_confirmed"
	guardRoomNotLocked    = "room_not_locked"
	guardStaleRoomEval    = "requirements_hash_mismatch"
)

// evaluateGuards checks the step preconditions for the event's current
// position. Earlier steps win: a missing date is reported before a
// missing room.
func evaluateGuards(e *models.Event) GuardSnapshot {
	if e == nil {
		return GuardSnapshot{}
	}
	g := GuardSnapshot{
		BillingFlowActive: e.BillingRequirements.AwaitingBillingForAccept ||
			e.BillingRequirements.AwaitingBillingForConfirmation,
		SiteVisitActive: e.SiteVisitState.Status.Pending(),
	}

	step := e.CurrentStep
	if step >= models.StepRoom && !e.DateConfirmed {
		g.ForcedStep = models.StepDate
		g.Reason = guardDateNotConfirmed
		return g
	}
	if step >= models.StepOffer && e.LockedRoomID == "" {
		g.ForcedStep = models.StepRoom
		g.Reason = guardRoomNotLocked
		return g
	}
	if step >= models.StepOffer && e.RoomEvalHash != e.RequirementsHash {
		g.HashMismatch = true
		// Billing capture has to reach its owner step first; the room
		// re-evaluation runs on the next regular message.
		if !g.BillingFlowActive {
			g.ForcedStep = models.StepRoom
			g.Reason = guardStaleRoomEval
		}
	}
	return g
}
