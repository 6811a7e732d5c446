package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/runq/internal/engine/scheduler"
	"github.com/kode4food/runq/pkg/api"
)

type (
	memStore struct {
		mu    sync.Mutex
		data  []byte
		saves int
		fail  error
	}

	harness struct {
		now   time.Time
		fired []string
		store *memStore
		sched *scheduler.Scheduler
	}
)

func (m *memStore) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, scheduler.ErrDocumentNotFound
	}
	return m.data, nil
}

func (m *memStore) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data = data
	m.saves++
	return nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var start = time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)

func newHarness(store *memStore) *harness {
	h := &harness{now: start, store: store}
	h.sched = h.build()
	return h
}

func (h *harness) build() *scheduler.Scheduler {
	cfg := scheduler.Config{
		Clock: func() time.Time { return h.now },
		Fire: func(r *scheduler.Record) error {
			h.fired = append(h.fired, r.ID)
			if r.Script.Script == "gone" {
				return errors.New("script not found")
			}
			return nil
		},
	}
	if h.store != nil {
		cfg.Store = h.store
	}
	return scheduler.New(cfg)
}

func (h *harness) schedule(t *testing.T, id string, d time.Duration) {
	t.Helper()
	require.NoError(t, h.sched.Schedule(&scheduler.Record{
		ID:     id,
		At:     h.now.Add(d),
		Script: api.ScriptRef{Script: "task"},
	}))
}

func (h *harness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.sched.Tick(h.now)
}

func tierOf(t *testing.T, s *scheduler.Scheduler, id string) scheduler.Tier {
	t.Helper()
	r, ok := s.Get(id)
	require.True(t, ok, id)
	return r.Tier
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, scheduler.TierNear, scheduler.TierFor(start, start))
	assert.Equal(t, scheduler.TierNear,
		scheduler.TierFor(start.Add(119*time.Second), start))
	assert.Equal(t, scheduler.TierMedium,
		scheduler.TierFor(start.Add(2*time.Minute), start))
	assert.Equal(t, scheduler.TierFar,
		scheduler.TierFor(start.Add(2*time.Hour), start))
}

func TestScheduleFilesByHorizon(t *testing.T) {
	h := newHarness(nil)
	h.schedule(t, "far", 5*time.Hour)
	h.schedule(t, "near", 30*time.Second)
	h.schedule(t, "medium", 10*time.Minute)

	assert.Equal(t, scheduler.TierNear, tierOf(t, h.sched, "near"))
	assert.Equal(t, scheduler.TierMedium, tierOf(t, h.sched, "medium"))
	assert.Equal(t, scheduler.TierFar, tierOf(t, h.sched, "far"))

	var ids []string
	for _, r := range h.sched.Records() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"near", "medium", "far"}, ids)

	err := h.sched.Schedule(&scheduler.Record{At: start})
	assert.ErrorIs(t, err, scheduler.ErrInvalidRecord)

	r := &scheduler.Record{At: start, Script: api.ScriptRef{Script: "x"}}
	require.NoError(t, h.sched.Schedule(r))
	assert.NotEmpty(t, r.ID)
}

func TestScheduleReplacesSameID(t *testing.T) {
	h := newHarness(nil)
	h.schedule(t, "a", 5*time.Hour)
	h.schedule(t, "a", 10*time.Second)
	assert.Equal(t, 1, h.sched.Len())
	assert.Equal(t, scheduler.TierNear, tierOf(t, h.sched, "a"))
}

func TestTickFiresWhenDue(t *testing.T) {
	h := newHarness(nil)
	h.schedule(t, "a", 10*time.Second)
	h.schedule(t, "b", 5*time.Second)

	h.tick(4 * time.Second)
	assert.Empty(t, h.fired)

	h.tick(time.Second)
	assert.Equal(t, []string{"b"}, h.fired)

	h.tick(5 * time.Second)
	assert.Equal(t, []string{"b", "a"}, h.fired)
	assert.Zero(t, h.sched.Len())
}

func TestTickDemotesTiers(t *testing.T) {
	h := newHarness(nil)
	h.schedule(t, "medium", 3*time.Minute)
	h.schedule(t, "far", 2*time.Hour+30*time.Minute)
	h.tick(0)
	assert.Equal(t, scheduler.TierMedium, tierOf(t, h.sched, "medium"))

	for range 2 {
		h.tick(time.Minute)
	}
	assert.Equal(t, scheduler.TierNear, tierOf(t, h.sched, "medium"))
	h.tick(time.Minute)
	assert.Equal(t, []string{"medium"}, h.fired)

	assert.Equal(t, scheduler.TierFar, tierOf(t, h.sched, "far"))
	h.now = start.Add(59 * time.Minute)
	h.tick(time.Minute)
	assert.Equal(t, scheduler.TierMedium, tierOf(t, h.sched, "far"))

	h.now = start.Add(2*time.Hour + 28*time.Minute + 30*time.Second)
	h.tick(time.Minute)
	assert.Equal(t, scheduler.TierNear, tierOf(t, h.sched, "far"))
	h.tick(time.Minute)
	assert.Equal(t, []string{"medium", "far"}, h.fired)
}

func TestFireErrorsDropRecord(t *testing.T) {
	h := newHarness(nil)
	require.NoError(t, h.sched.Schedule(&scheduler.Record{
		ID: "x", At: start, Script: api.ScriptRef{Script: "gone"},
	}))
	h.schedule(t, "y", 0)
	h.tick(0)
	assert.ElementsMatch(t, []string{"x", "y"}, h.fired)
	assert.Zero(t, h.sched.Len())
}

func TestRemove(t *testing.T) {
	h := newHarness(nil)
	h.schedule(t, "a", time.Minute)
	h.schedule(t, "b", 3*time.Hour)
	require.NoError(t, h.sched.Schedule(&scheduler.Record{
		ID: "c", At: start.Add(time.Hour), Script: api.ScriptRef{Script: "Other"},
	}))

	assert.True(t, h.sched.Remove("a"))
	assert.False(t, h.sched.Remove("a"))
	assert.Equal(t, 1, h.sched.RemoveScript("other"))
	assert.Equal(t, 1, h.sched.Len())
}

func TestRestartRecomputesTier(t *testing.T) {
	store := &memStore{}
	h := newHarness(store)
	h.schedule(t, "later", 3*time.Hour)
	require.NoError(t, h.sched.Flush(context.Background()))

	h.now = start.Add(2*time.Hour + 59*time.Minute)
	h.sched = h.build()
	require.NoError(t, h.sched.Load(context.Background()))
	assert.Equal(t, scheduler.TierNear, tierOf(t, h.sched, "later"))

	h.tick(59 * time.Second)
	assert.Empty(t, h.fired)
	h.tick(time.Second)
	assert.Equal(t, []string{"later"}, h.fired)
}

func TestLoadMissingDocument(t *testing.T) {
	h := newHarness(&memStore{})
	assert.NoError(t, h.sched.Load(context.Background()))
	assert.Zero(t, h.sched.Len())
}

func TestSaveCadence(t *testing.T) {
	store := &memStore{}
	h := newHarness(store)
	h.tick(0)
	assert.Zero(t, store.saveCount())

	h.schedule(t, "a", time.Hour)
	h.tick(time.Second)
	assert.Eventually(t, func() bool {
		return store.saveCount() == 1
	}, time.Second, 5*time.Millisecond)

	h.schedule(t, "b", time.Hour)
	h.tick(time.Minute)
	require.NoError(t, h.sched.Flush(context.Background()))
	assert.Equal(t, 2, store.saveCount())

	h.schedule(t, "c", time.Hour)
	h.tick(scheduler.DefaultSaveInterval)
	assert.Eventually(t, func() bool {
		return store.saveCount() == 3
	}, time.Second, 5*time.Millisecond)
}

func TestSaveFailureKeepsState(t *testing.T) {
	store := &memStore{fail: errors.New("disk full")}
	h := newHarness(store)
	h.schedule(t, "a", time.Hour)

	err := h.sched.Flush(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, h.sched.Len())

	store.mu.Lock()
	store.fail = nil
	store.mu.Unlock()
	require.NoError(t, h.sched.Flush(context.Background()))
	assert.Equal(t, 1, store.saveCount())
}

func TestDocumentRoundTrip(t *testing.T) {
	at := time.UnixMilli(start.UnixMilli())
	records := []*scheduler.Record{
		{
			ID: "f", At: at.Add(3 * time.Hour), Tier: scheduler.TierFar,
			Script:      api.ScriptRef{Script: "task", Path: "other"},
			Definitions: api.Definitions{"a": "1"},
			Context:     map[string]string{"player": "bob"},
		},
		{
			ID: "n", At: at, Tier: scheduler.TierNear,
			Script:      api.ScriptRef{Script: "task"},
			Definitions: api.Definitions{},
		},
	}
	data, err := scheduler.Encode(records)
	require.NoError(t, err)
	assert.Regexp(t, `(?s)^near_0:.*far_0:`, string(data))

	back, err := scheduler.Decode(data)
	require.NoError(t, err)
	require.Len(t, back, 2)

	opts := []cmp.Option{
		cmpopts.IgnoreUnexported(scheduler.Record{}),
		cmpopts.IgnoreFields(scheduler.Record{}, "Tier"),
		cmpopts.EquateEmpty(),
	}
	if diff := cmp.Diff(records[1], back[0], opts...); diff != "" {
		t.Errorf("near record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(records[0], back[1], opts...); diff != "" {
		t.Errorf("far record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, err := scheduler.Decode([]byte("- not\n- a map\n"))
	assert.ErrorIs(t, err, scheduler.ErrInvalidDocument)

	recs, err := scheduler.Decode([]byte(
		"near_0:\n  id: ok\n  time: 1000\n  script: a\n" +
			"bogus_0:\n  id: x\n" +
			"far_0:\n  id: y\n",
	))
	assert.ErrorIs(t, err, scheduler.ErrInvalidDocument)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].ID)

	recs, err = scheduler.Decode(nil)
	assert.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecordHeap(t *testing.T) {
	h := scheduler.NewRecordHeap()
	assert.Nil(t, h.PopRecord())
	h.Insert(nil)
	h.Insert(&scheduler.Record{ID: "no-time"})
	assert.Zero(t, h.Len())

	h.Insert(&scheduler.Record{ID: "a", At: start.Add(2 * time.Second)})
	h.Insert(&scheduler.Record{ID: "b", At: start.Add(time.Second)})
	h.Insert(&scheduler.Record{ID: "a", At: start})
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, "a", h.Peek().ID)
	assert.True(t, h.Cancel("a"))
	assert.False(t, h.Cancel("a"))
	assert.Equal(t, "b", h.PopRecord().ID)
}
