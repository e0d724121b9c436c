package trace

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

func TestRecordAssignsMonotonicRowIDs(t *testing.T) {
	b := NewBus(10)

	e1 := b.Record("th-1", Entry{Kind: KindStepEnter, Step: 1})
	e2 := b.Record("th-1", Entry{Kind: KindStepExit, Step: 1})
	e3 := b.Record("th-2", Entry{Kind: KindStepEnter, Step: 1})

	assert.Equal(t, int64(1), e1.RowID)
	assert.Equal(t, int64(2), e2.RowID)
	assert.Equal(t, int64(1), e3.RowID, "row ids are per thread")
	assert.False(t, e1.Ts.IsZero())
}

func TestRetentionDropsOldestKeepsCounting(t *testing.T) {
	b := NewBus(3)
	for i := 0; i < 5; i++ {
		b.Record("th-1", Entry{Kind: KindStepEnter, Step: i})
	}

	entries := b.Entries("th-1")
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[0].RowID)
	assert.Equal(t, int64(5), entries[2].RowID)

	next := b.Record("th-1", Entry{Kind: KindStepExit})
	assert.Equal(t, int64(6), next.RowID, "row ids never reset after drops")
}

func TestEntriesReturnsCopy(t *testing.T) {
	b := NewBus(10)
	b.Record("th-1", Entry{Kind: KindStepEnter, Detail: "original"})

	got := b.Entries("th-1")
	got[0].Detail = "mutated"

	assert.Equal(t, "original", b.Entries("th-1")[0].Detail)
}

func TestLastResultRoundTrip(t *testing.T) {
	b := NewBus(10)

	_, ok := b.LastResult("th-1")
	assert.False(t, ok)

	b.SetLastResult("th-1", &models.ProcessResult{Action: "reply_sent", CurrentStep: 3})
	res, ok := b.LastResult("th-1")
	require.True(t, ok)
	assert.Equal(t, "reply_sent", res.Action)

	res.Action = "mutated"
	again, _ := b.LastResult("th-1")
	assert.Equal(t, "reply_sent", again.Action, "stored result is isolated from callers")
}

func TestConcurrentRecording(t *testing.T) {
	b := NewBus(1000)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				b.Record(fmt.Sprintf("th-%d", n%2), Entry{Kind: KindStepEnter, Step: 1})
			}
		}(i)
	}
	wg.Wait()

	total := len(b.Entries("th-0")) + len(b.Entries("th-1"))
	assert.Equal(t, 200, total)

	seen := map[int64]bool{}
	for _, e := range b.Entries("th-0") {
		assert.False(t, seen[e.RowID], "row ids must be unique per thread")
		seen[e.RowID] = true
	}
}

func TestDrop(t *testing.T) {
	b := NewBus(10)
	b.Record("th-1", Entry{Kind: KindStepEnter})
	b.Drop("th-1")
	assert.Empty(t, b.Entries("th-1"))
	assert.Empty(t, b.Threads())
}

func TestActivityViewSkipsInternalKinds(t *testing.T) {
	b := NewBus(10)
	b.Record("th-1", Entry{Kind: KindDBRead})
	b.Record("th-1", Entry{Kind: KindStepEnter, Step: 2})
	b.Record("th-1", Entry{Kind: KindPromptIn})
	b.Record("th-1", Entry{Kind: KindEntityCapture, Detail: "date 15.04.2026"})
	b.Record("th-1", Entry{Kind: KindGateFail, OwnerStep: 3})
	b.Record("th-1", Entry{Kind: KindDraftSend, Detail: "date options"})

	view := b.ActivityView("th-1")
	require.Len(t, view, 4)
	assert.Equal(t, "Entered date confirmation", view[0].Label)
	assert.Equal(t, "Captured date 15.04.2026", view[1].Label)
	assert.Equal(t, "Redirected to room availability", view[2].Label)
	assert.Equal(t, "Reply prepared: date options", view[3].Label)
}
