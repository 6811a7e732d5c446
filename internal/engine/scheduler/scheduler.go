// Package scheduler keeps deferred script starts in near, medium, and far
// tiers and persists them so they survive a restart
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/runq/pkg/log"
)

type (
	// Scheduler owns every deferred record. Tick, Schedule, and Remove are
	// expected on the host's tick goroutine; only the persistence write
	// runs elsewhere
	Scheduler struct {
		mu         sync.Mutex
		tiers      map[Tier]*RecordHeap
		store      Store
		fire       FireFunc
		now        Clock
		interval   time.Duration
		lastMinute time.Time
		lastHour   time.Time
		lastSave   time.Time
		dirty      bool
		saving     atomic.Bool
		failed     atomic.Bool
		wg         sync.WaitGroup
	}

	// Store loads and replaces the whole persisted document
	Store interface {
		Load(ctx context.Context) ([]byte, error)
		Save(ctx context.Context, data []byte) error
	}

	// FireFunc starts the script for a due record
	FireFunc func(r *Record) error

	// Config describes a scheduler to create
	Config struct {
		Store        Store
		Fire         FireFunc
		Clock        Clock
		SaveInterval time.Duration
	}
)

// DefaultSaveInterval is how often a changed record set is persisted
const DefaultSaveInterval = 30 * time.Minute

const saveTimeout = 30 * time.Second

var (
	ErrDocumentNotFound = errors.New("deferred document not found")
	ErrInvalidRecord    = errors.New("invalid deferred record")
)

// New creates a scheduler. A nil Store disables persistence
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		tiers: map[Tier]*RecordHeap{
			TierNear:   NewRecordHeap(),
			TierMedium: NewRecordHeap(),
			TierFar:    NewRecordHeap(),
		},
		store:    cfg.Store,
		fire:     cfg.Fire,
		now:      cfg.Clock,
		interval: cfg.SaveInterval,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.interval <= 0 {
		s.interval = DefaultSaveInterval
	}
	return s
}

// Schedule files a record into the tier matching its remaining delay,
// replacing any record with the same id
func (s *Scheduler) Schedule(r *Record) error {
	if r == nil || r.At.IsZero() || r.Script.Script == "" {
		return ErrInvalidRecord
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel(r.ID)
	s.file(r, s.now())
	s.dirty = true
	return nil
}

// Remove drops the record with the given id
func (s *Scheduler) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cancel(id) {
		return false
	}
	s.dirty = true
	return true
}

// RemoveScript drops every record targeting the named script and returns
// how many were removed
func (s *Scheduler) RemoveScript(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for _, h := range s.tiers {
		h.Each(func(r *Record) {
			if strings.EqualFold(r.Script.Script, name) {
				ids = append(ids, r.ID)
			}
		})
	}
	for _, id := range ids {
		s.cancel(id)
	}
	if len(ids) > 0 {
		s.dirty = true
	}
	return len(ids)
}

// Records returns copies of every record sorted by fire time
func (s *Scheduler) Records() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Get returns a copy of the record with the given id
func (s *Scheduler) Get(id string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.tiers {
		if r, ok := h.Get(id); ok {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Len returns the number of pending records
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.tiers {
		n += h.Len()
	}
	return n
}

// Tick fires due near-tier records, demotes medium and far records on
// minute and hour boundaries, and persists on the save cadence
func (s *Scheduler) Tick(now time.Time) {
	if s.failed.Swap(false) {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}

	due := s.advance(now)
	for _, r := range due {
		s.fireRecord(r)
	}
	s.maybeSave(now)
}

func (s *Scheduler) advance(now time.Time) []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Record
	near := s.tiers[TierNear]
	for r := near.Peek(); r != nil && !r.At.After(now); r = near.Peek() {
		due = append(due, near.PopRecord())
	}
	if len(due) > 0 {
		s.dirty = true
	}

	if minute := now.Truncate(time.Minute); !minute.Equal(s.lastMinute) {
		s.lastMinute = minute
		s.demote(TierMedium, TierNear, NearHorizon, now)
	}
	if hour := now.Truncate(time.Hour); !hour.Equal(s.lastHour) {
		s.lastHour = hour
		s.demote(TierFar, TierMedium, MediumHorizon, now)
	}
	return due
}

func (s *Scheduler) demote(from, to Tier, horizon time.Duration, now time.Time) {
	src := s.tiers[from]
	dst := s.tiers[to]
	for r := src.Peek(); r != nil && r.At.Sub(now) < horizon; r = src.Peek() {
		src.PopRecord()
		r.Tier = to
		dst.Insert(r)
		slog.Debug("Deferred record demoted",
			log.RecordID(r.ID),
			log.Tier(to))
	}
}

func (s *Scheduler) fireRecord(r *Record) {
	if s.fire == nil {
		return
	}
	if err := s.fire(r); err != nil {
		slog.Error("Deferred run dropped",
			log.RecordID(r.ID),
			log.Script(r.Script.String()),
			log.Error(err))
	}
}

func (s *Scheduler) maybeSave(now time.Time) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	if !s.dirty || now.Sub(s.lastSave) < s.interval || s.saving.Load() {
		s.mu.Unlock()
		return
	}
	data, err := Encode(s.snapshot())
	s.lastSave = now
	s.dirty = false
	s.mu.Unlock()

	if err != nil {
		slog.Error("Failed to encode deferred records", log.Error(err))
		s.failed.Store(true)
		return
	}

	s.saving.Store(true)
	s.wg.Go(func() {
		defer s.saving.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.store.Save(ctx, data); err != nil {
			slog.Error("Failed to save deferred records", log.Error(err))
			s.failed.Store(true)
		}
	})
}

// Load reads the persisted document and re-files every record by
// recomputing its tier from the current time
func (s *Scheduler) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := s.store.Load(ctx)
	if errors.Is(err, ErrDocumentNotFound) || (err == nil && len(data) == 0) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load deferred records: %w", err)
	}

	records, decodeErr := Decode(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.cancel(r.ID)
		s.file(r, now)
	}
	return decodeErr
}

// Flush waits for any background write, then saves synchronously
func (s *Scheduler) Flush(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.wg.Wait()

	s.mu.Lock()
	data, err := Encode(s.snapshot())
	s.dirty = false
	s.mu.Unlock()
	if err == nil {
		err = s.store.Save(ctx, data)
	}
	if err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("failed to save deferred records: %w", err)
	}
	return nil
}

func (s *Scheduler) file(r *Record, now time.Time) {
	r.Tier = TierFor(r.At, now)
	s.tiers[r.Tier].Insert(r)
}

func (s *Scheduler) cancel(id string) bool {
	for _, h := range s.tiers {
		if h.Cancel(id) {
			return true
		}
	}
	return false
}

func (s *Scheduler) snapshot() []*Record {
	var res []*Record
	for _, tier := range tierOrder {
		s.tiers[tier].Each(func(r *Record) {
			res = append(res, r.Clone())
		})
	}
	sortByTime(res)
	return res
}
