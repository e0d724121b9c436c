package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hashutil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// stepIntake runs on every message: it binds or creates the event,
// merges extracted entities, and short-circuits the conversations that
// never reach the step machine (spam, questions without an event,
// manager escalations, cancellations, low-confidence reads).
func (r *Router) stepIntake(_ context.Context, ws *WorkflowState) (GroupResult, error) {
	if ws.Continuation {
		return GroupResult{}, nil
	}
	det := ws.Detection

	if ws.Event == nil {
		switch {
		case det.Intent == models.IntentNonEvent:
			return GroupResult{Action: ActionNonEventIgnored, Halt: true}, nil
		case det.Intent == models.IntentQnA:
			return GroupResult{
				Action: ActionStandaloneQnA,
				Halt:   true,
				Drafts: []DraftSpec{r.qnaDraft(ws)},
			}, nil
		case det.Intent == models.IntentManagerRequest:
			r.enqueueManualReview(ws, "manager requested with no active booking")
			return GroupResult{
				Action: ActionManualReview,
				Halt:   true,
				Drafts: []DraftSpec{ackDraft(ws, "Thank you for reaching out. A member of our events team will contact you personally.")},
			}, nil
		case det.Intent == models.IntentCancellation:
			return GroupResult{
				Action: ActionStandaloneQnA,
				Halt:   true,
				Drafts: []DraftSpec{ackDraft(ws, "We could not find an active booking under this address. If you believe this is an error, just reply with your booking details.")},
			}, nil
		case det.Confidence < minAutoConfidence:
			r.enqueueManualReview(ws, fmt.Sprintf("low confidence %.2f on first contact", det.Confidence))
			return GroupResult{
				Action: ActionManualReview,
				Halt:   true,
				Drafts: []DraftSpec{ackDraft(ws, "Thank you for your message! A member of our team will get back to you shortly.")},
			}, nil
		}

		ws.Event = r.createEvent(ws)
		ws.Note(ActionEventCreated)
	}

	e := ws.Event

	if det.Confidence < minAutoConfidence {
		r.enqueueManualReview(ws, fmt.Sprintf("low confidence %.2f at step %d", det.Confidence, e.CurrentStep))
		return GroupResult{
			Action: ActionManualReview,
			Halt:   true,
			Drafts: []DraftSpec{ackDraft(ws, "Thanks for your message — we want to get this right, so a colleague will take a look and reply shortly.")},
		}, nil
	}
	if det.Intent == models.IntentManagerRequest {
		r.enqueueManualReview(ws, "client asked for a manager")
		return GroupResult{
			Action: ActionManualReview,
			Halt:   true,
			Drafts: []DraftSpec{ackDraft(ws, "Of course — our events manager will contact you personally.")},
		}, nil
	}
	if det.Intent == models.IntentCancellation {
		return r.cancelEvent(ws), nil
	}

	r.captureEntities(ws)

	awaitingBilling := e.BillingRequirements.AwaitingBillingForAccept ||
		e.BillingRequirements.AwaitingBillingForConfirmation
	billingCaptured := capturedBilling(ws.Captured)

	switch det.Intent {
	case models.IntentNonEvent:
		if billingCaptured || awaitingBilling {
			return GroupResult{}, nil
		}
		return GroupResult{Action: ActionNonEventIgnored, Halt: true}, nil
	case models.IntentQnA:
		// Questions only stall the flow when nothing actionable rode
		// along with them. Deposit payment reports must always reach
		// the confirmation step, however the classifier read them.
		depositReport := ws.Msg.DepositJustPaid || reDepositPaidCtx.MatchString(ws.StrippedBody())
		if billingCaptured || awaitingBilling || wantsSiteVisit(ws) || len(ws.Captured) > 0 || depositReport {
			return GroupResult{}, nil
		}
		if e.CurrentStep >= models.StepOffer && e.CurrentOffer() != nil {
			// Questions about the standing offer belong to the step that
			// owns it, not to the generic venue answer.
			return GroupResult{}, nil
		}
		return GroupResult{
			Action: ActionQnAAnswered,
			Halt:   true,
			Drafts: []DraftSpec{r.qnaDraft(ws)},
		}, nil
	}
	return GroupResult{}, nil
}

func (r *Router) createEvent(ws *WorkflowState) *models.Event {
	threadID := ws.Msg.ThreadID
	if threadID == "" {
		threadID = "thread-" + uuid.NewString()
	}
	e := &models.Event{
		EventID:     uuid.NewString(),
		ClientID:    models.NormalizeEmail(ws.Msg.FromEmail),
		ThreadID:    threadID,
		CurrentStep: models.StepIntake,
		ThreadState: models.ThreadStateInProgress,
		Status:      models.EventStatusLead,
	}
	ws.DB.AddEvent(e)
	r.logger.Info("event created",
		"event_id", e.EventID,
		"thread_id", e.ThreadID,
		"client", e.ClientID)
	return e
}

func (r *Router) cancelEvent(ws *WorkflowState) GroupResult {
	e := ws.Event
	status := models.EventStatusCancelled
	thread := models.ThreadStateClosed
	ws.DB.UpdateEventMetadata(e, store.EventPatch{Status: &status, ThreadState: &thread})
	ws.DB.AppendAuditEntry(e, models.AuditEntry{Field: "status", To: string(status), Detail: "client cancelled"})
	body := "We are sorry to see this one go — your booking is cancelled. We hope to welcome you another time!"
	return GroupResult{
		Action: ActionCancelled,
		Halt:   true,
		Drafts: []DraftSpec{ackDraft(ws, body)},
	}
}

// captureEntities merges the detected entities into the event and
// recomputes the requirements hash when a requirement moved.
func (r *Router) captureEntities(ws *WorkflowState) {
	e := ws.Event
	ent := ws.Entities()
	var changed []string
	reqChanged := false

	if ent.Participants != nil && *ent.Participants > 0 {
		if e.Requirements.NumberOfParticipants == nil || *e.Requirements.NumberOfParticipants != *ent.Participants {
			n := *ent.Participants
			e.Requirements.NumberOfParticipants = &n
			changed = append(changed, "participants")
			reqChanged = true
		}
	}
	if ent.StartTime != "" && ent.EndTime != "" {
		d := &models.TimeRange{Start: ent.StartTime, End: ent.EndTime}
		if e.Requirements.Duration == nil || *e.Requirements.Duration != *d {
			e.Requirements.Duration = d
			changed = append(changed, "duration")
			reqChanged = true
		}
	}
	if ent.RoomPreference != "" && !strings.EqualFold(e.Requirements.PreferredRoom, ent.RoomPreference) {
		e.Requirements.PreferredRoom = ent.RoomPreference
		changed = append(changed, "preferred_room")
		reqChanged = true
	}
	for _, mention := range ent.ProductsAdd {
		if e.AddProduct(r.canonicalProduct(mention)) {
			changed = append(changed, "product_add")
		}
	}
	for _, mention := range ent.ProductsRemove {
		if e.RemoveProduct(r.canonicalProduct(mention)) {
			changed = append(changed, "product_remove")
		}
	}
	if ent.MenuChoice != "" && !strings.EqualFold(e.MenuChoice, ent.MenuChoice) {
		e.MenuChoice = ent.MenuChoice
		changed = append(changed, "menu_choice")
	}
	if fields := mergeBilling(e, ent.BillingAddress); len(fields) > 0 {
		changed = append(changed, "billing:"+strings.Join(fields, ","))
	}

	if reqChanged {
		h := hashutil.RequirementsHash(e.Requirements)
		ws.DB.UpdateEventMetadata(e, store.EventPatch{RequirementsHash: &h})
	}
	for _, c := range changed {
		ws.DB.AppendAuditEntry(e, models.AuditEntry{Field: c, Detail: "captured from message"})
	}
	ws.Captured = changed
}

// canonicalProduct maps a client mention onto the catalog name, keeping
// the raw mention when nothing matches so the offer step can flag it.
func (r *Router) canonicalProduct(mention string) string {
	if p, err := r.catalog.ResolveProduct(mention); err == nil {
		return p.Name
	}
	return mention
}

func capturedBilling(captured []string) bool {
	for _, c := range captured {
		if strings.HasPrefix(c, "billing:") {
			return true
		}
	}
	return false
}

func (r *Router) enqueueManualReview(ws *WorkflowState, reason string) {
	task := hil.NewTask(models.TaskManualReview, ws.Event, nil, reason)
	if task.ThreadID == "" {
		task.ThreadID = ws.Msg.ThreadID
	}
	ws.DB.EnqueueTask(task)
	r.hil.Announce(task)
	hilTasksQueuedTotal.WithLabelValues(string(models.TaskManualReview)).Inc()
}

func ackDraft(ws *WorkflowState, body string) DraftSpec {
	return DraftSpec{Draft: models.Draft{Body: body, Topic: models.TopicQnA}}
}

// qnaDraft answers venue questions from the catalog and calendar; it
// never consults an LLM for facts.
func (r *Router) qnaDraft(ws *WorkflowState) DraftSpec {
	var sections []string
	if ws.HasQnAType("pricing") {
		var b strings.Builder
		b.WriteString("Our rooms and day rates:\n")
		for _, room := range r.catalog.Rooms() {
			fmt.Fprintf(&b, "- %s (up to %d guests): %s %s per day\n",
				room.Name, room.Capacity, "CHF", verbalizer.FormatAmountSwiss(room.DayPrice))
		}
		sections = append(sections, b.String())
	}
	if ws.HasQnAType("catering") {
		var b strings.Builder
		b.WriteString("Catering options:\n")
		for _, p := range r.catalog.Products() {
			fmt.Fprintf(&b, "- %s: CHF %s (%s)\n", p.Name,
				verbalizer.FormatAmountSwiss(p.Price), strings.ReplaceAll(string(p.Unit), "_", " "))
		}
		sections = append(sections, b.String())
	}
	if ws.HasQnAType("availability") {
		dates := r.calendar.CandidateDates(ws.Now.AddDate(0, 0, 7), 3)
		var isoDates []string
		for _, d := range dates {
			isoDates = append(isoDates, calendar.FormatISO(d))
		}
		if len(isoDates) > 0 {
			sections = append(sections, "Upcoming available days include:\n"+verbalizer.BulletDates(isoDates))
		}
	}
	if ws.HasQnAType("parking") {
		sections = append(sections, "Parking is available next to the venue; we are happy to reserve spots for your guests.")
	}
	if ws.HasQnAType("accessibility") {
		sections = append(sections, "All event rooms are step-free and wheelchair accessible.")
	}
	if ws.HasQnAType("site_visit") {
		sections = append(sections, "You are welcome to visit the venue before booking — just name a day that suits you.")
	}
	if len(sections) == 0 {
		sections = append(sections, "Happy to help! Could you tell us a bit more about what you would like to know?")
	}
	body := strings.Join(sections, "\n")
	return DraftSpec{Draft: models.Draft{Body: body, Topic: models.TopicQnA}}
}
