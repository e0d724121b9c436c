package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openevent_workflow_messages_total",
		Help: "Processed inbound messages by primary result action.",
	}, []string{"action"})

	stepSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openevent_workflow_step_seconds",
		Help:    "Step handler latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	detoursTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openevent_workflow_detours_total",
		Help: "Change detours routed, by change type.",
	}, []string{"change_type"})

	guardForcedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openevent_workflow_guard_forced_total",
		Help: "Dispatches redirected by a precondition guard.",
	}, []string{"reason"})

	duplicateReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openevent_workflow_duplicate_replays_total",
		Help: "Inbound messages answered from the stored prior result.",
	})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openevent_workflow_fallbacks_total",
		Help: "Message cycles that ended in the fallback reply.",
	})

	hilTasksQueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openevent_hil_tasks_queued_total",
		Help: "Approval tasks enqueued, by task type.",
	}, []string{"task_type"})
)
