package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// UpsertClient returns the client for email, creating it when unseen.
// Profile fields are filled in if they were empty.
func (db *Database) UpsertClient(email, name, phone, company string) *models.Client {
	email = models.NormalizeEmail(email)
	for _, c := range db.Clients {
		if c.Email == email {
			if c.Name == "" {
				c.Name = name
			}
			if c.Phone == "" {
				c.Phone = phone
			}
			if c.Company == "" {
				c.Company = company
			}
			return c
		}
	}
	c := &models.Client{
		Email:     email,
		Name:      name,
		Phone:     phone,
		Company:   company,
		CreatedAt: time.Now().UTC(),
	}
	db.Clients = append(db.Clients, c)
	return c
}

// FindClient returns the client for email or nil.
func (db *Database) FindClient(email string) *models.Client {
	email = models.NormalizeEmail(email)
	for _, c := range db.Clients {
		if c.Email == email {
			return c
		}
	}
	return nil
}

// LastEventForEmail returns the most recently created event owned by the
// address, or nil. Cancelled and closed events are skipped.
func (db *Database) LastEventForEmail(email string) *models.Event {
	email = models.NormalizeEmail(email)
	var last *models.Event
	for _, e := range db.Events {
		if e.ClientID != email {
			continue
		}
		if e.Status == models.EventStatusCancelled || e.ThreadState == models.ThreadStateClosed {
			continue
		}
		if last == nil || e.CreatedAt.After(last.CreatedAt) {
			last = e
		}
	}
	return last
}

// OpenEventsForEmail lists all non-terminal events for the address, newest
// first insertion order preserved.
func (db *Database) OpenEventsForEmail(email string) []*models.Event {
	email = models.NormalizeEmail(email)
	var out []*models.Event
	for _, e := range db.Events {
		if e.ClientID != email {
			continue
		}
		if e.Status == models.EventStatusCancelled || e.ThreadState == models.ThreadStateClosed {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FindEventByThread returns the event owning thread_id or nil.
func (db *Database) FindEventByThread(threadID string) *models.Event {
	if threadID == "" {
		return nil
	}
	for _, e := range db.Events {
		if e.ThreadID == threadID {
			return e
		}
	}
	return nil
}

// FindEventByID returns the event with event_id or nil.
func (db *Database) FindEventByID(eventID string) *models.Event {
	for _, e := range db.Events {
		if e.EventID == eventID {
			return e
		}
	}
	return nil
}

// AddEvent appends a new event record.
func (db *Database) AddEvent(e *models.Event) {
	db.Events = append(db.Events, e)
}

// EventPatch names the fields UpdateEventMetadata may set. Nil pointer
// fields are left untouched; ClearCallerStep and ClearRoomLock express
// explicit resets.
type EventPatch struct {
	CurrentStep      *int
	CallerStep       *int
	ClearCallerStep  bool
	ThreadState      *models.ThreadState
	Status           *models.EventStatus
	ChosenDate       *string
	DateConfirmed    *bool
	LockedRoomID     *string
	ClearRoomLock    bool
	RoomEvalHash     *string
	RequirementsHash *string
	OfferHash        *string
	OfferAccepted    *bool
	OfferStatus      *string
	CurrentOfferID   *int
}

// UpdateEventMetadata applies the provided fields to the event and writes
// an audit breadcrumb whenever current_step or caller_step moves.
func (db *Database) UpdateEventMetadata(e *models.Event, p EventPatch) {
	now := time.Now().UTC()

	if p.CurrentStep != nil && *p.CurrentStep != e.CurrentStep {
		db.AppendAuditEntry(e, models.AuditEntry{
			Ts:    now,
			Field: "current_step",
			From:  strconv.Itoa(e.CurrentStep),
			To:    strconv.Itoa(*p.CurrentStep),
		})
		e.CurrentStep = models.ClampStep(*p.CurrentStep)
	}

	if p.ClearCallerStep && e.CallerStep != nil {
		db.AppendAuditEntry(e, models.AuditEntry{
			Ts:    now,
			Field: "caller_step",
			From:  strconv.Itoa(*e.CallerStep),
			To:    "null",
		})
		e.CallerStep = nil
	} else if p.CallerStep != nil {
		from := "null"
		if e.CallerStep != nil {
			from = strconv.Itoa(*e.CallerStep)
		}
		if e.CallerStep == nil || *e.CallerStep != *p.CallerStep {
			db.AppendAuditEntry(e, models.AuditEntry{
				Ts:    now,
				Field: "caller_step",
				From:  from,
				To:    strconv.Itoa(*p.CallerStep),
			})
			v := models.ClampStep(*p.CallerStep)
			e.CallerStep = &v
		}
	}

	if p.ThreadState != nil {
		e.ThreadState = *p.ThreadState
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ChosenDate != nil {
		e.ChosenDate = *p.ChosenDate
	}
	if p.DateConfirmed != nil {
		e.DateConfirmed = *p.DateConfirmed
	}
	if p.ClearRoomLock {
		e.LockedRoomID = ""
		e.RoomEvalHash = ""
	} else {
		if p.LockedRoomID != nil {
			e.LockedRoomID = *p.LockedRoomID
		}
		if p.RoomEvalHash != nil {
			e.RoomEvalHash = *p.RoomEvalHash
		}
	}
	if p.RequirementsHash != nil {
		e.RequirementsHash = *p.RequirementsHash
	}
	if p.OfferHash != nil {
		e.OfferHash = *p.OfferHash
	}
	if p.OfferAccepted != nil {
		e.OfferAccepted = *p.OfferAccepted
	}
	if p.OfferStatus != nil {
		e.OfferStatus = *p.OfferStatus
	}
	if p.CurrentOfferID != nil {
		e.CurrentOfferID = *p.CurrentOfferID
	}

	e.UpdatedAt = now
}

// AppendAuditEntry records a breadcrumb on the event's audit trail.
func (db *Database) AppendAuditEntry(e *models.Event, entry models.AuditEntry) {
	if entry.Ts.IsZero() {
		entry.Ts = time.Now().UTC()
	}
	e.Audit = append(e.Audit, entry)
}

// AppendHistory records a message on the client's append-only history.
func (db *Database) AppendHistory(c *models.Client, entry models.HistoryEntry) {
	if entry.Ts.IsZero() {
		entry.Ts = time.Now().UTC()
	}
	c.History = append(c.History, entry)
}

// TagMessage marks msg_id as processed on the event. Returns false when
// the id was already present, in which case nothing changes.
func (db *Database) TagMessage(e *models.Event, msgID string) bool {
	if e.HasMsg(msgID) {
		return false
	}
	e.Msgs = append(e.Msgs, msgID)
	return true
}

// EnqueueTask appends a task to the queue.
func (db *Database) EnqueueTask(t *models.Task) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	db.Tasks = append(db.Tasks, t)
}

// FindTask returns the task with task_id or an error.
func (db *Database) FindTask(taskID string) (*models.Task, error) {
	for _, t := range db.Tasks {
		if t.TaskID == taskID {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// PendingTasks lists tasks still waiting on a reviewer.
func (db *Database) PendingTasks() []*models.Task {
	var out []*models.Task
	for _, t := range db.Tasks {
		if t.Status == models.TaskPending {
			out = append(out, t)
		}
	}
	return out
}

// LoadSettings returns the runtime configuration object.
func (db *Database) LoadSettings() models.Settings {
	return db.Config
}

// SaveSettings replaces the runtime configuration and bumps its version.
func (db *Database) SaveSettings(s models.Settings) {
	s.ConfigVersion = db.Config.ConfigVersion + 1
	db.Config = s
}
