package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/detect"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/prefilter"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/session"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/trace"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
)

// maxChainHops bounds intra-cycle step chaining. The longest legitimate
// chain is a shortcut bundle healing forward from step 2; anything past
// this is a routing loop.
const maxChainHops = 8

// Options wires a Router. Store, Detector, Verbalizer, HIL, Catalog and
// Calendar are required; the rest default to sane ambient values.
type Options struct {
	Store      *store.Store
	Detector   *detect.Detector
	Scanner    *prefilter.Scanner
	Verbalizer *verbalizer.Verbalizer
	HIL        *hil.Service
	Catalog    *catalog.Catalog
	Calendar   calendar.Calendar
	Trace      *trace.Bus
	Sessions   *session.Registry
	Env        config.Environment
	Logger     *slog.Logger
	Now        func() time.Time
}

// Router drives the message cycle: lock, load, scan, detect, route
// through the step machine, polish drafts, persist, reply. One instance
// serves all threads.
type Router struct {
	store      *store.Store
	detector   *detect.Detector
	scanner    *prefilter.Scanner
	verbalizer *verbalizer.Verbalizer
	hil        *hil.Service
	catalog    *catalog.Catalog
	calendar   calendar.Calendar
	trace      *trace.Bus
	sessions   *session.Registry
	env        config.Environment
	logger     *slog.Logger
	now        func() time.Time
	steps      map[int]stepHandler
}

var _ hil.Resumer = (*Router)(nil)

// NewRouter creates the workflow router. Missing required dependencies
// are programming errors and panic.
func NewRouter(opts Options) *Router {
	if opts.Store == nil {
		panic("workflow.NewRouter: nil store")
	}
	if opts.Detector == nil {
		panic("workflow.NewRouter: nil detector")
	}
	if opts.Verbalizer == nil {
		panic("workflow.NewRouter: nil verbalizer")
	}
	if opts.HIL == nil {
		panic("workflow.NewRouter: nil hil service")
	}
	if opts.Catalog == nil {
		panic("workflow.NewRouter: nil catalog")
	}
	if opts.Calendar == nil {
		panic("workflow.NewRouter: nil calendar")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Scanner == nil {
		opts.Scanner = prefilter.NewScanner(logger)
	}
	if opts.Trace == nil {
		opts.Trace = trace.NewBus(trace.DefaultLimit)
	}
	if opts.Sessions == nil {
		sessions, err := session.NewRegistry(session.DefaultSize, logger)
		if err != nil {
			panic("workflow.NewRouter: session registry: " + err.Error())
		}
		opts.Sessions = sessions
	}
	if opts.Env == "" {
		opts.Env = config.EnvironmentDev
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	r := &Router{
		store:      opts.Store,
		detector:   opts.Detector,
		scanner:    opts.Scanner,
		verbalizer: opts.Verbalizer,
		hil:        opts.HIL,
		catalog:    opts.Catalog,
		calendar:   opts.Calendar,
		trace:      opts.Trace,
		sessions:   opts.Sessions,
		env:        opts.Env,
		logger:     logger.With("component", "workflow"),
		now:        opts.Now,
	}
	r.steps = map[int]stepHandler{
		models.StepIntake:       r.stepIntake,
		models.StepDate:         r.stepDate,
		models.StepRoom:         r.stepRoom,
		models.StepOffer:        r.stepOffer,
		models.StepNegotiation:  r.stepNegotiation,
		models.StepTransition:   r.stepTransition,
		models.StepConfirmation: r.stepConfirmation,
	}
	return r
}

// Trace exposes the per-thread trace bus for the debug surface.
func (r *Router) Trace() *trace.Bus { return r.trace }

// Sessions exposes the thread summary registry.
func (r *Router) Sessions() *session.Registry { return r.sessions }

// ProcessMessage runs one inbound message through the full cycle under
// the store lock. It never returns an error for processing failures; the
// client always gets a reply, worst case the fallback. dbPath overrides
// the router's store, the test and resume affordance.
func (r *Router) ProcessMessage(ctx context.Context, msg *models.InboundMessage, dbPath string) (*models.ProcessResult, error) {
	if msg == nil || (msg.MsgID == "" && msg.FromEmail == "") {
		return nil, ErrEmptyMessage
	}
	st := r.storeFor(dbPath)

	release, err := st.Acquire(ctx)
	if err != nil {
		return r.fallbackResult(FallbackContext{Source: "lock"}, err, msg, nil, nil), nil
	}
	defer release()

	db, err := st.Load()
	if err != nil {
		return r.fallbackResult(FallbackContext{Source: "load", Trigger: ErrKindPersistenceFailed}, err, msg, nil, nil), nil
	}
	r.traceRecord(msg.ThreadID, trace.Entry{Kind: trace.KindDBRead, Detail: st.Path()})

	settings := db.LoadSettings()
	client := db.UpsertClient(msg.FromEmail, msg.FromName, "", "")

	event := db.FindEventByThread(msg.ThreadID)
	if event == nil {
		open := db.OpenEventsForEmail(client.Email)
		switch len(open) {
		case 0:
		case 1:
			event = open[0]
		default:
			return r.devChoice(st, db, msg, open)
		}
	}

	ws := &WorkflowState{
		Msg:          msg,
		DB:           db,
		Client:       client,
		Event:        event,
		Settings:     settings,
		Now:          r.now(),
		Continuation: msg.IsContinuation || strings.Contains(msg.Body, models.ContinuationMarker),
	}
	ws.Scan = r.scanner.Scan(msg, event, settings.PreFilter.Mode)

	if ws.Scan.Duplicate {
		// Redeliveries replay even when they carry attack markers; the
		// first delivery already queued the review.
		return r.replayDuplicate(ws), nil
	}
	if ws.Scan.StructuralAttack {
		return r.rejectAttack(ctx, ws, st)
	}

	if event != nil {
		if verr := store.ValidateEvent(event); verr != nil {
			// Tag before enqueueing: a redelivery of the same message must
			// replay, not queue a second review task.
			if msg.MsgID != "" {
				db.TagMessage(event, msg.MsgID)
			}
			res := r.fallbackResult(FallbackContext{Source: "validate"}, verr, msg, db, event)
			r.save(st, db, event)
			return res, nil
		}
	}

	if event != nil && msg.MsgID != "" {
		db.TagMessage(event, msg.MsgID)
	}
	db.AppendHistory(client, models.HistoryEntry{
		MsgID:     msg.MsgID,
		Direction: models.DirectionInbound,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Ts:        msg.Time(),
	})

	if !ws.Continuation {
		stepForPrompt := models.StepIntake
		if event != nil {
			stepForPrompt = event.CurrentStep
		}
		det, derr := r.detector.Detect(ctx, msg, stepForPrompt, ws.Scan.LanguageHint, settings)
		if derr != nil {
			res := r.fallbackResult(FallbackContext{Source: "detect"}, derr, msg, db, event)
			r.save(st, db, event)
			return res, nil
		}
		ws.Detection = det
	}

	gr, err := r.stepIntake(ctx, ws)
	if err != nil {
		res := r.fallbackResult(FallbackContext{Source: "intake"}, err, msg, db, ws.Event)
		r.save(st, db, ws.Event)
		return res, nil
	}
	if ws.Event != nil && event == nil {
		// Intake created the event this cycle; tag the message on it so a
		// redelivery replays instead of double-creating.
		event = ws.Event
		if msg.MsgID != "" {
			db.TagMessage(event, msg.MsgID)
		}
	}
	if gr.Halt {
		return r.finish(ctx, ws, st, gr.Action, gr.Drafts)
	}
	if ws.Event == nil {
		return r.finish(ctx, ws, st, ActionNoop, nil)
	}
	if len(ws.Captured) > 0 {
		r.traceRecord(r.threadKey(ws), trace.Entry{
			Kind:   trace.KindEntityCapture,
			Step:   ws.Event.CurrentStep,
			Detail: strings.Join(ws.Captured, ", "),
		})
	}
	if ws.Event.CurrentStep == models.StepIntake {
		moveTo(ws, models.StepDate)
	}

	primary := ""
	if d := detectChange(ws); d != nil {
		ws.Change = d
		if !d.InPlace {
			primary = r.applyChangeDetour(ws, d)
		}
	}

	// A site-visit exchange runs beside the booking; the step machine
	// does not move. A structural detour outranks it.
	if wantsSiteVisit(ws) && primary != ActionChangeDetour && primary != ActionStructuralDetour {
		vr, verr := r.handleSiteVisit(ctx, ws)
		if verr != nil {
			res := r.fallbackResult(FallbackContext{Source: "site_visit"}, verr, msg, db, ws.Event)
			r.save(st, db, ws.Event)
			return res, nil
		}
		if primary == "" {
			primary = vr.Action
		} else if vr.Action != "" {
			ws.Note(vr.Action)
		}
		return r.finish(ctx, ws, st, primary, vr.Drafts)
	}

	if primary == "" && r.tryShortcut(ws) {
		primary = ActionSmartShortcut
	}

	drafts, chainAction, err := r.dispatch(ctx, ws)
	if err != nil {
		res := r.fallbackResult(FallbackContext{Source: "dispatch"}, err, msg, db, ws.Event)
		r.save(st, db, ws.Event)
		return res, nil
	}
	if primary == "" {
		primary = chainAction
	}
	if primary == "" {
		primary = ActionNoop
		if ws.Continuation {
			primary = ActionResumed
		}
	}
	return r.finish(ctx, ws, st, primary, drafts)
}

// Resume re-enters the workflow after a gated draft was approved. It
// satisfies hil.Resumer.
func (r *Router) Resume(ctx context.Context, dbPath string, msg *models.InboundMessage) (*models.ProcessResult, error) {
	if msg == nil {
		return nil, ErrEmptyMessage
	}
	m := *msg
	m.IsContinuation = true
	return r.ProcessMessage(ctx, &m, dbPath)
}

// dispatch walks the step machine from the event's current position,
// re-checking guards before every hop.
func (r *Router) dispatch(ctx context.Context, ws *WorkflowState) ([]DraftSpec, string, error) {
	key := r.threadKey(ws)
	var drafts []DraftSpec
	chainAction := ""

	for hop := 0; hop < maxChainHops; hop++ {
		e := ws.Event
		ws.Guards = evaluateGuards(e)
		if f := ws.Guards.ForcedStep; f != 0 && f != e.CurrentStep {
			guardForcedTotal.WithLabelValues(ws.Guards.Reason).Inc()
			r.traceRecord(key, trace.Entry{
				Kind:      trace.KindGateFail,
				Step:      e.CurrentStep,
				Detail:    ws.Guards.Reason,
				OwnerStep: f,
			})
			r.walkBack(ws, f)
		}

		step := ws.Event.CurrentStep
		handler, ok := r.steps[step]
		if !ok {
			return drafts, chainAction, &ValidationError{Step: step, Field: "current_step", Msg: "no handler for step"}
		}

		r.traceRecord(key, trace.Entry{Kind: trace.KindStepEnter, Step: step})
		started := time.Now()
		gr, err := handler(ctx, ws)
		stepSeconds.WithLabelValues(strconv.Itoa(step)).Observe(time.Since(started).Seconds())
		r.traceRecord(key, trace.Entry{Kind: trace.KindStepExit, Step: step, Detail: gr.Action})
		if err != nil {
			return drafts, chainAction, err
		}

		drafts = append(drafts, gr.Drafts...)
		if gr.Action != "" {
			chainAction = gr.Action
			ws.Note(gr.Action)
		}
		if gr.Halt || !gr.Chain {
			break
		}
	}
	return drafts, chainAction, nil
}

// finish polishes and gates the drafts, persists the database, and
// assembles the result. Every successful cycle funnels through here.
func (r *Router) finish(ctx context.Context, ws *WorkflowState, st *store.Store, primary string, specs []DraftSpec) (*models.ProcessResult, error) {
	key := r.threadKey(ws)
	pending := false
	sent := make([]models.Draft, 0, len(specs))

	for i := range specs {
		d := &specs[i].Draft
		if d.Step == 0 && ws.Event != nil {
			d.Step = ws.Event.CurrentStep
		}
		if specs[i].Facts != nil {
			r.verbalizer.Polish(ctx, d, specs[i].Facts, ws.Settings)
		}

		gated := !specs[i].SkipGate &&
			(d.RequiresApproval || (ws.Settings.HILMode.Enabled && d.Topic.HILGated()))
		if gated {
			d.RequiresApproval = true
			task := hil.NewTask(taskTypeFor(d), ws.Event, d, "")
			if task.ThreadID == "" {
				task.ThreadID = ws.Msg.ThreadID
			}
			ws.DB.EnqueueTask(task)
			r.hil.Announce(task)
			hilTasksQueuedTotal.WithLabelValues(string(task.Type)).Inc()
			pending = true
		} else if ws.Client != nil && d.Topic != models.TopicOfferSummary {
			// The offer summary is a panel artifact, not client mail.
			ws.DB.AppendHistory(ws.Client, models.HistoryEntry{
				MsgID:     "out-" + uuid.NewString(),
				Direction: models.DirectionOutbound,
				Body:      d.Body,
				Ts:        ws.Now,
			})
		}
		r.traceRecord(key, trace.Entry{
			Kind:   trace.KindDraftSend,
			Step:   d.Step,
			Detail: string(d.Topic),
			Data:   map[string]any{"gated": gated},
		})
		sent = append(sent, *d)
	}

	if pending && ws.Event != nil {
		setThreadState(ws, models.ThreadStateWaitingOnHIL)
	}

	if err := st.Save(ws.DB); err != nil {
		// The write failed, so neither the tasks nor the event mutations
		// exist; the fallback must not enqueue into the discarded state.
		return r.fallbackResult(FallbackContext{Source: "save", Trigger: ErrKindPersistenceFailed}, err, ws.Msg, nil, ws.Event), nil
	}
	r.traceRecord(key, trace.Entry{Kind: trace.KindDBWrite, Detail: st.Path()})

	res := &models.ProcessResult{
		Action:        primary,
		ThreadID:      key,
		DraftMessages: sent,
		Actions:       ws.Actions,
		Res:           models.ResultFlags{PendingHILApproval: pending},
	}
	if ws.Detection != nil {
		res.Intent = ws.Detection.Intent
		res.Confidence = ws.Detection.Confidence
	}
	if e := ws.Event; e != nil {
		res.EventID = e.EventID
		res.ThreadState = e.ThreadState
		res.CurrentStep = e.CurrentStep
		res.Progress = ProgressFor(e.CurrentStep)
	}

	messagesTotal.WithLabelValues(primary).Inc()
	if key != "" {
		r.trace.SetLastResult(key, res)
		r.sessions.Update(session.Summary{
			ThreadID:    key,
			EventID:     res.EventID,
			ClientEmail: clientEmail(ws.Client),
			CurrentStep: res.CurrentStep,
			ThreadState: res.ThreadState,
			LastAction:  primary,
			LastMsgID:   ws.Msg.MsgID,
			UpdatedAt:   ws.Now,
		})
	}

	r.logger.Info("message processed",
		"msg_id", ws.Msg.MsgID,
		"thread_id", key,
		"event_id", res.EventID,
		"action", primary,
		"step", res.CurrentStep,
		"drafts", len(sent),
		"pending_hil", pending)
	return res, nil
}

// rejectAttack short-circuits a message carrying structural injection
// markers: nothing from it reaches a prompt or the event state beyond
// the replay tag.
func (r *Router) rejectAttack(ctx context.Context, ws *WorkflowState, st *store.Store) (*models.ProcessResult, error) {
	r.logger.Warn("structural attack markers in message",
		"msg_id", ws.Msg.MsgID,
		"thread_id", ws.Msg.ThreadID,
		"patterns", ws.Scan.MatchedPatterns)
	if ws.Event != nil && ws.Msg.MsgID != "" {
		ws.DB.TagMessage(ws.Event, ws.Msg.MsgID)
	}
	r.enqueueManualReview(ws, "structural delimiter attack: "+strings.Join(ws.Scan.MatchedPatterns, ", "))
	ack := ackDraft(ws, "Thank you for your message. A member of our events team will review it and get back to you.")
	return r.finish(ctx, ws, st, ActionManualReview, []DraftSpec{ack})
}

// replayDuplicate answers a redelivered message with the stored result of
// its first processing. Nothing is mutated and nothing is saved.
func (r *Router) replayDuplicate(ws *WorkflowState) *models.ProcessResult {
	duplicateReplaysTotal.Inc()
	e := ws.Event
	r.logger.Info("duplicate message replayed",
		"msg_id", ws.Msg.MsgID,
		"event_id", e.EventID)

	if prior, ok := r.trace.LastResult(e.ThreadID); ok {
		replay := *prior
		replay.Action = ActionDuplicateReplay
		return &replay
	}
	// The first result predates this process; rebuild the envelope from
	// the event without drafts rather than re-running side effects.
	return &models.ProcessResult{
		Action:      ActionDuplicateReplay,
		EventID:     e.EventID,
		ThreadID:    e.ThreadID,
		ThreadState: e.ThreadState,
		CurrentStep: e.CurrentStep,
		Progress:    ProgressFor(e.CurrentStep),
	}
}

// devChoice reports the open events an unbound message could belong to.
// Test traffic picks one by resending with the event's thread id.
func (r *Router) devChoice(st *store.Store, db *store.Database, msg *models.InboundMessage, open []*models.Event) (*models.ProcessResult, error) {
	ids := make([]string, 0, len(open))
	for _, e := range open {
		ids = append(ids, e.EventID)
	}
	res := &models.ProcessResult{
		Action:   ActionDevChoiceRequired,
		ThreadID: msg.ThreadID,
		DevChoice: &models.DevChoice{
			Prompt:   fmt.Sprintf("%d open events for %s; resend with the target thread id", len(open), msg.FromEmail),
			EventIDs: ids,
		},
	}
	r.save(st, db, nil)
	messagesTotal.WithLabelValues(ActionDevChoiceRequired).Inc()
	return res, nil
}

// walkBack forces the event to an earlier step, remembering the current
// one so the flow returns there after the precondition heals.
func (r *Router) walkBack(ws *WorkflowState, forced int) {
	e := ws.Event
	cur := e.CurrentStep
	patch := store.EventPatch{CurrentStep: &forced}
	if e.CallerStep == nil && cur > forced {
		caller := cur
		patch.CallerStep = &caller
	}
	ws.DB.UpdateEventMetadata(e, patch)
	ws.DB.AppendAuditEntry(e, models.AuditEntry{
		Field:  "guard_walkback",
		From:   fmt.Sprintf("step %d", cur),
		To:     fmt.Sprintf("step %d", forced),
		Detail: ws.Guards.Reason,
	})
	r.logger.Info("guard forced walkback",
		"event_id", e.EventID,
		"from_step", cur,
		"to_step", forced,
		"reason", ws.Guards.Reason)
}

// save persists best-effort on error paths where the primary result is
// already a fallback; the review task from that fallback must survive.
func (r *Router) save(st *store.Store, db *store.Database, event *models.Event) {
	if err := st.Save(db); err != nil {
		eventID := ""
		if event != nil {
			eventID = event.EventID
		}
		r.logger.Error("save after fallback failed",
			"event_id", eventID,
			"error", err)
	}
}

// storeFor resolves the store a cycle runs against. An empty or matching
// path is the router's own store.
func (r *Router) storeFor(dbPath string) *store.Store {
	if dbPath == "" || dbPath == r.store.Path() {
		return r.store
	}
	return store.New(dbPath)
}

func (r *Router) threadKey(ws *WorkflowState) string {
	if ws.Event != nil && ws.Event.ThreadID != "" {
		return ws.Event.ThreadID
	}
	return ws.Msg.ThreadID
}

func (r *Router) traceRecord(threadID string, e trace.Entry) {
	if threadID == "" {
		return
	}
	r.trace.Record(threadID, e)
}

// taskTypeFor maps a gated draft to its approval queue type.
func taskTypeFor(d *models.Draft) models.TaskType {
	switch d.Topic {
	case models.TopicTransitionMessage:
		return models.TaskTransitionMessage
	case models.TopicFinalContractSent, models.TopicOfferConfirmation:
		return models.TaskConfirmationMessage
	case models.TopicOfferSent:
		return models.TaskOfferDraft
	}
	if d.Step == models.StepNegotiation {
		return models.TaskNegotiationDecision
	}
	return models.TaskManualReview
}

func clientEmail(c *models.Client) string {
	if c == nil {
		return ""
	}
	return c.Email
}
