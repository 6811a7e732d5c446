// Package queue implements execution queues: ordered, spliceable lists of
// entries together with the definitions and determinations of one running
// script instance
package queue

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/runq/pkg/api"
)

type (
	// Queue is one running script instance. Entries execute on whichever
	// goroutine currently drives it, but control calls such as Stop, Clear,
	// Pause, Resume and Delay may arrive from any goroutine
	Queue struct {
		mu             sync.Mutex
		id             api.QueueID
		script         api.ScriptRef
		entries        []*Entry
		defs           api.Definitions
		determinations []string
		state          api.QueueState
		timed          bool
		speed          time.Duration
		nextRun        time.Time
		lastTick       time.Time
		delay          DelayTracker
		async          bool
		handoff        Handoff
		callbacks      []func(*Queue)
		contextFn      ContextFunc
		context        map[string]string
		contextReady   bool
		current        *Entry
		arena          arena
		reporter       Reporter
		clock          Clock
	}

	// Config describes a queue to create
	Config struct {
		ID          api.QueueID
		Script      api.ScriptRef
		Timed       bool
		Speed       time.Duration
		Definitions api.Definitions
		Context     ContextFunc
		Reporter    Reporter
		Clock       Clock
	}

	// Clock returns the current time
	Clock func() time.Time

	// ContextFunc computes the external context of a queue. It is called
	// at most once, the first time the context is read
	ContextFunc func() map[string]string

	// Handoff is a pending transfer of a queue between the tick thread and
	// an async worker
	Handoff uint8
)

const (
	NoHandoff Handoff = iota
	ToWorker
	ToTick
)

var (
	ErrCommandPanicked = errors.New("command panicked")
	ErrUnknownCommand  = errors.New("unknown command")
)

// New creates a queue in the created state
func New(cfg Config) *Queue {
	q := &Queue{
		id:        cfg.ID,
		script:    cfg.Script.WithDefaultPath(),
		defs:      cfg.Definitions.Clone(),
		state:     api.QueueCreated,
		timed:     cfg.Timed,
		speed:     cfg.Speed,
		contextFn: cfg.Context,
		reporter:  cfg.Reporter,
		clock:     cfg.Clock,
	}
	if q.id == "" {
		q.id = api.QueueID(cfg.Script.Script + "_" + uuid.NewString())
	}
	if q.reporter == nil {
		q.reporter = NewSlogReporter(nil)
	}
	if q.clock == nil {
		q.clock = time.Now
	}
	return q
}

// ID returns the unique queue id
func (q *Queue) ID() api.QueueID {
	return q.id
}

// Script returns the script and path the queue was started from
func (q *Queue) Script() api.ScriptRef {
	return q.script
}

// State returns the lifecycle state
func (q *Queue) State() api.QueueState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// IsTimed reports whether the queue runs one slice per tick
func (q *Queue) IsTimed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.timed
}

// Speed returns the interval between timed slices
func (q *Queue) Speed() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.speed
}

// SetSpeed changes the interval between timed slices
func (q *Queue) SetSpeed(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.speed = d
}

// Now reads the queue's clock
func (q *Queue) Now() time.Time {
	return q.clock()
}

// Reporter returns the sink used for this queue's output
func (q *Queue) Reporter() Reporter {
	return q.reporter
}

// Current returns the entry being executed, if any
func (q *Queue) Current() *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

func (q *Queue) setCurrent(e *Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = e
}

// Start begins execution. An instant queue runs to completion (or until
// something inside it waits); a timed queue runs its first slice on the
// next tick
func (q *Queue) Start() {
	q.mu.Lock()
	if q.state != api.QueueCreated {
		q.mu.Unlock()
		return
	}
	q.state = api.QueueRunning
	timed := q.timed
	if timed {
		now := q.clock()
		q.nextRun = now
		q.lastTick = now
	}
	q.mu.Unlock()

	if !timed {
		q.Run()
	}
}

// Run executes entries back to back until the queue empties, stops,
// pauses, waits, or requests a hand-off
func (q *Queue) Run() {
	for q.runnable() {
		e := q.RemoveFirst()
		if e == nil {
			q.complete()
			return
		}
		q.execute(e)
	}
	q.completeIfDrained()
}

// Tick advances a timed queue by at most one slice: one entry plus any
// instant entries directly behind it
func (q *Queue) Tick(now time.Time) {
	q.mu.Lock()
	if !q.timed || q.handoff != NoHandoff {
		q.mu.Unlock()
		return
	}
	var delta time.Duration
	if !q.lastTick.IsZero() {
		delta = now.Sub(q.lastTick)
	}
	q.lastTick = now
	running := q.state == api.QueueRunning
	delay := q.delay
	q.mu.Unlock()

	if !running {
		return
	}
	if delay != nil {
		if delay.Waiting(now, delta) {
			return
		}
		q.mu.Lock()
		if q.delay == delay {
			q.delay = nil
			q.nextRun = now
		}
		q.mu.Unlock()
	}
	if !q.due(now) {
		return
	}

	for first := true; q.runnable(); first = false {
		e := q.Entry(0)
		if e == nil || (!first && !e.Instant) {
			break
		}
		q.RemoveFirst()
		q.execute(e)
	}

	q.mu.Lock()
	q.nextRun = q.nextRun.Add(q.speed)
	if !q.nextRun.After(now) {
		q.nextRun = now.Add(q.speed)
	}
	q.mu.Unlock()
	q.completeIfDrained()
}

func (q *Queue) due(now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !now.Before(q.nextRun)
}

func (q *Queue) runnable() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state == api.QueueRunning && q.delay == nil &&
		q.handoff == NoHandoff
}

func (q *Queue) completeIfDrained() {
	if q.runnable() && q.Size() == 0 {
		q.complete()
	}
}

func (q *Queue) execute(e *Entry) {
	e.queue = q
	q.setCurrent(e)
	defer func() {
		q.setCurrent(nil)
		if r := recover(); r != nil {
			q.reporter.Error(q,
				fmt.Sprintf("%s: %s: %v", ErrCommandPanicked, e.Name, r),
			)
		}
	}()

	q.reporter.Report(e, e.String())
	if e.command == nil {
		q.reporter.Error(q, fmt.Sprintf("%s: %s", ErrUnknownCommand, e.Name))
		return
	}
	if err := e.command.Execute(e); err != nil {
		q.reporter.Error(q, fmt.Sprintf("%s: %s", e.Name, err))
	}
}

// AddEntries appends entries to the end of the pending list
func (q *Queue) AddEntries(entries ...*Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range entries {
		e.queue = q
	}
	q.entries = append(q.entries, entries...)
}

// Inject splices entries into the pending list at index at, clamped to
// the list bounds
func (q *Queue) Inject(entries []*Entry, at int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	at = min(max(at, 0), len(q.entries))
	for _, e := range entries {
		e.queue = q
	}
	q.entries = slices.Insert(q.entries, at, entries...)
}

// InjectEntry splices a single entry at index at
func (q *Queue) InjectEntry(e *Entry, at int) {
	q.Inject([]*Entry{e}, at)
}

// Remove deletes and returns the pending entry at index i
func (q *Queue) Remove(i int) *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.entries) {
		return nil
	}
	e := q.entries[i]
	q.entries = slices.Delete(q.entries, i, i+1)
	return e
}

// RemoveFirst pops the next pending entry
func (q *Queue) RemoveFirst() *Entry {
	return q.Remove(0)
}

// RemoveRange deletes pending entries in [from, to)
func (q *Queue) RemoveRange(from, to int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	from = max(from, 0)
	to = min(to, len(q.entries))
	if from >= to {
		return
	}
	q.entries = slices.Delete(q.entries, from, to)
}

// Entry returns the pending entry at index i, or nil
func (q *Queue) Entry(i int) *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.entries) {
		return nil
	}
	return q.entries[i]
}

// Size returns the number of pending entries
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Clear drops all pending work. The queue completes normally once the
// currently executing entry returns
func (q *Queue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.delay = nil
	q.arena.reset()
	idle := q.current == nil && q.handoff == NoHandoff
	q.mu.Unlock()
	if idle {
		q.completeIfDrained()
	}
}

// Stop terminates the queue, discarding pending work
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.state.IsDone() {
		q.mu.Unlock()
		return
	}
	q.state = api.QueueStopped
	q.entries = nil
	q.delay = nil
	q.arena.reset()
	q.mu.Unlock()
	q.fireCallbacks()
}

func (q *Queue) complete() {
	q.mu.Lock()
	if q.state.IsDone() {
		q.mu.Unlock()
		return
	}
	q.state = api.QueueCompleted
	q.arena.reset()
	q.mu.Unlock()
	q.fireCallbacks()
}

// Pause freezes the queue without discarding work. An instant queue is
// upgraded to timed so that Resume continues it on later ticks
func (q *Queue) Pause() {
	now := q.clock()
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.timed {
		q.upgrade(now, nil)
	}
	if q.state == api.QueueRunning {
		q.state = api.QueuePaused
	}
}

// Resume continues a paused queue
func (q *Queue) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state == api.QueuePaused {
		q.state = api.QueueRunning
	}
}

// DelayUntil holds the queue until the given wall-clock time
func (q *Queue) DelayUntil(t time.Time) {
	q.Delay(Deadline(t))
}

// Delay holds the queue until the tracker stops waiting
func (q *Queue) Delay(d DelayTracker) {
	now := q.clock()
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.timed {
		q.upgrade(now, d)
		return
	}
	q.delay = d
}

// UpgradeToTimed converts an instant queue in place, keeping its entries
// and definitions, so that it can wait on later ticks
func (q *Queue) UpgradeToTimed(d DelayTracker) {
	now := q.clock()
	q.mu.Lock()
	defer q.mu.Unlock()
	q.upgrade(now, d)
}

func (q *Queue) upgrade(now time.Time, d DelayTracker) {
	q.timed = true
	q.delay = d
	q.nextRun = now
	q.lastTick = now
}

// IsDelayed reports whether a delay tracker is pending
func (q *Queue) IsDelayed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delay != nil
}

// OnComplete registers a callback fired once when the queue completes or
// stops. Registering on a finished queue fires immediately
func (q *Queue) OnComplete(fn func(*Queue)) {
	q.mu.Lock()
	if q.state.IsDone() {
		q.mu.Unlock()
		fn(q)
		return
	}
	q.callbacks = append(q.callbacks, fn)
	q.mu.Unlock()
}

func (q *Queue) fireCallbacks() {
	q.mu.Lock()
	callbacks := q.callbacks
	q.callbacks = nil
	q.mu.Unlock()
	for _, fn := range callbacks {
		fn(q)
	}
}

// Define binds a definition
func (q *Queue) Define(name, value string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.defs.Set(name, value)
}

// Definition reads a definition
func (q *Queue) Definition(name string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.defs.Get(name)
}

// Undefine removes a definition
func (q *Queue) Undefine(name string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.defs.Remove(name)
}

// Definitions returns a copy of every definition
func (q *Queue) Definitions() api.Definitions {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.defs.Clone()
}

// Determine appends a value to the determination list
func (q *Queue) Determine(v string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.determinations = append(q.determinations, v)
}

// Determinations returns a copy of the determination list
func (q *Queue) Determinations() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.determinations)
}

// ContextValue reads one key of the external context, computing the
// context on first use
func (q *Queue) ContextValue(key string) (string, bool) {
	v, ok := q.contextMap()[key]
	return v, ok
}

// ContextSnapshot returns a copy of the external context
func (q *Queue) ContextSnapshot() map[string]string {
	return maps.Clone(q.contextMap())
}

func (q *Queue) contextMap() map[string]string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.contextReady {
		q.contextReady = true
		if q.contextFn != nil {
			q.context = q.contextFn()
		}
	}
	return q.context
}

// Pin keeps e addressable after it has been popped and returns its handle
func (q *Queue) Pin(e *Entry) Ref {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.arena.pin(e)
}

// Resolve returns the pinned entry for r, or nil if it was released
func (q *Queue) Resolve(r Ref) *Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.arena.get(r)
}

// Release unpins the entry for r and drops its scratch state
func (q *Queue) Release(r Ref) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.arena.release(r)
}

// Pinned returns the number of entries currently pinned
func (q *Queue) Pinned() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.arena.len()
}

// IsAsync reports whether the queue is owned by an async worker
func (q *Queue) IsAsync() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.async
}

// SetAsync records which side currently owns the queue
func (q *Queue) SetAsync(async bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.async = async
}

// RequestHandoff asks the driver to move the queue after the current
// entry returns
func (q *Queue) RequestHandoff(h Handoff) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handoff = h
}

// TakeHandoff returns and clears the pending hand-off request
func (q *Queue) TakeHandoff() Handoff {
	q.mu.Lock()
	defer q.mu.Unlock()
	h := q.handoff
	q.handoff = NoHandoff
	return h
}

// Info describes the queue at this moment
func (q *Queue) Info() api.QueueInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	return api.QueueInfo{
		ID:             q.id,
		Script:         q.script,
		State:          q.state,
		Timed:          q.timed,
		Async:          q.async,
		Pending:        len(q.entries),
		Definitions:    q.defs.Clone(),
		Determinations: slices.Clone(q.determinations),
	}
}
