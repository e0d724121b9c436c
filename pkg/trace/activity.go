package trace

import (
	"fmt"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// ActivityView renders a thread's trace into the human-readable items the
// activity surface shows. Internal kinds (DB access, prompts, snapshots)
// are skipped.
func (b *Bus) ActivityView(threadID string) []models.ActivityEntry {
	entries := b.Entries(threadID)
	out := make([]models.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		label, ok := activityLabel(e)
		if !ok {
			continue
		}
		out = append(out, models.ActivityEntry{
			Ts:    e.Ts,
			Kind:  string(e.Kind),
			Label: label,
		})
	}
	return out
}

func activityLabel(e Entry) (string, bool) {
	switch e.Kind {
	case KindStepEnter:
		return fmt.Sprintf("Entered %s", stepName(e.Step)), true
	case KindStepExit:
		if e.Detail != "" {
			return fmt.Sprintf("Finished %s (%s)", stepName(e.Step), e.Detail), true
		}
		return fmt.Sprintf("Finished %s", stepName(e.Step)), true
	case KindGateFail:
		return fmt.Sprintf("Redirected to %s", stepName(e.OwnerStep)), true
	case KindEntityCapture:
		if e.Detail != "" {
			return fmt.Sprintf("Captured %s", e.Detail), true
		}
		return "Captured details", true
	case KindDraftSend:
		if e.Detail != "" {
			return fmt.Sprintf("Reply prepared: %s", e.Detail), true
		}
		return "Reply prepared", true
	default:
		return "", false
	}
}

func stepName(step int) string {
	switch step {
	case models.StepIntake:
		return "intake"
	case models.StepDate:
		return "date confirmation"
	case models.StepRoom:
		return "room availability"
	case models.StepOffer:
		return "offer"
	case models.StepNegotiation:
		return "negotiation"
	case models.StepTransition:
		return "transition"
	case models.StepConfirmation:
		return "confirmation"
	default:
		return fmt.Sprintf("step %d", step)
	}
}
