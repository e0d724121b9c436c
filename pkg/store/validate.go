package store

import "github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"

// ValidateEvent checks the structural invariants a loaded event must hold.
// The first violation is returned; callers route violations to manual
// review rather than failing the message.
func ValidateEvent(e *models.Event) error {
	if e.CurrentStep < models.StepMin || e.CurrentStep > models.StepMax {
		return &InvariantError{
			EventID:   e.EventID,
			Invariant: "step range",
			Detail:    "current_step outside [1,7]",
		}
	}
	if e.CallerStep != nil && (*e.CallerStep < models.StepMin || *e.CallerStep > models.StepMax) {
		return &InvariantError{
			EventID:   e.EventID,
			Invariant: "step range",
			Detail:    "caller_step outside [1,7]",
		}
	}
	if e.LockedRoomID != "" && !e.DateConfirmed {
		return &InvariantError{
			EventID:   e.EventID,
			Invariant: "room lock",
			Detail:    "locked_room_id set without a confirmed date",
		}
	}
	if e.OfferAccepted && e.CurrentOffer() == nil {
		return &InvariantError{
			EventID:   e.EventID,
			Invariant: "offer reference",
			Detail:    "offer_accepted without a matching current_offer_id",
		}
	}
	return nil
}
