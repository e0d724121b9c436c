package detect

import (
	"fmt"
	"strings"
)

// detectionSchema is the exact shape both detection modes must return.
// Field names mirror the models.UnifiedDetection JSON tags.
const detectionSchema = `{
  "intent": "event_request|confirm_date|accept_offer|decline_offer|change_request|qna|non_event|cancellation|manager_request",
  "confidence": 0.0,
  "language": "en",
  "signals": {
    "is_confirmation": false,
    "is_acceptance": false,
    "is_rejection": false,
    "is_change_request": false,
    "is_manager_request": false,
    "is_question": false,
    "has_urgency": false
  },
  "entities": {
    "date_iso": "YYYY-MM-DD or omit",
    "date_text": "the literal date phrase or omit",
    "start_time": "HH:MM or omit",
    "end_time": "HH:MM or omit",
    "participants": 0,
    "duration_hours": 0.0,
    "room_preference": "room name or omit",
    "products_add": [],
    "products_remove": [],
    "billing_address": {
      "name_or_company": "", "street": "", "postal_code": "", "city": "", "country": ""
    },
    "menu_choice": ""
  },
  "qna_types": [],
  "step_anchor": null
}`

// detectionRules are shared between unified and legacy prompts.
const detectionRules = `Rules:
- Classify only the client's NEW text; text quoted from earlier mails (lines starting with ">" or below an attribution line) is context, never a request.
- Dates are day-first: 15.04.2026 means April 15th. Emit date_iso as YYYY-MM-DD.
- A date mentioned as a payment or reference date (e.g. "we paid on 02.01.2026") is NOT an event date; omit it from date_iso.
- is_change_request requires BOTH a revision word (move, change, reschedule, instead, ...) AND a named target (date, room, offer, participants, ...).
- A question about price, parking, catering, availability or visits is qna even when it mentions event details.
- confidence is your certainty in the intent, between 0 and 1.
- step_anchor names the workflow step (1-7) the message plainly refers to, or null.`

// buildUnifiedSystem assembles the instructions for the single-call
// detection. The raw message body travels separately as the user turn.
func buildUnifiedSystem(currentStep int, subject, langHint string) string {
	var b strings.Builder
	b.WriteString("You classify one client email in an event-venue booking conversation ")
	b.WriteString("and extract every structured value it carries.\n\n")
	fmt.Fprintf(&b, "Current step: %d of 7 (1 intake, 2 date, 3 room, 4 offer, 5 negotiation, 6 transition, 7 confirmation).\n", currentStep)
	if subject != "" {
		fmt.Fprintf(&b, "Mail subject: %s\n", subject)
	}
	if langHint != "" {
		fmt.Fprintf(&b, "Language hint from pre-scan: %s\n", langHint)
	}
	b.WriteString("\nRespond with a single JSON object matching this schema, omitting empty fields, and nothing else:\n")
	b.WriteString(detectionSchema)
	b.WriteString("\n\n")
	b.WriteString(detectionRules)
	return b.String()
}

// buildIntentSystem assembles the legacy first-call instructions: intent,
// signals and language only.
func buildIntentSystem(currentStep int, langHint string) string {
	var b strings.Builder
	b.WriteString("You classify one client email in an event-venue booking conversation.\n\n")
	fmt.Fprintf(&b, "Current step: %d of 7.\n", currentStep)
	if langHint != "" {
		fmt.Fprintf(&b, "Language hint from pre-scan: %s\n", langHint)
	}
	b.WriteString("\nRespond with a single JSON object carrying only intent, confidence, language and signals from this schema, and nothing else:\n")
	b.WriteString(detectionSchema)
	b.WriteString("\n\n")
	b.WriteString(detectionRules)
	return b.String()
}

// buildEntitySystem assembles the legacy second-call instructions:
// entities only.
func buildEntitySystem(langHint string) string {
	var b strings.Builder
	b.WriteString("You extract structured booking values from one client email.\n")
	if langHint != "" {
		fmt.Fprintf(&b, "Language hint from pre-scan: %s\n", langHint)
	}
	b.WriteString("\nRespond with a single JSON object carrying only the entities field from this schema, and nothing else:\n")
	b.WriteString(detectionSchema)
	b.WriteString("\n\n")
	b.WriteString(detectionRules)
	return b.String()
}
