// Package scheduler raises an alert shortly before each upcoming calendar
// event. Alerts are kept in a min-heap by fire time and delivered on a
// buffered channel; a slow consumer loses alerts instead of stalling the loop.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/voxdash/internal/model"
)

var (
	ErrInvalidFireTime = errors.New("scheduler: invalid fire time")
	ErrStopped         = errors.New("scheduler: engine stopped")
)

// Alert fires at FireAt for the calendar event ID starting at StartsAt.
type Alert struct {
	ID       string
	Title    string
	StartsAt time.Time
	FireAt   time.Time
}

type entry struct {
	alert Alert
	index int
}

type alertHeap []*entry

func (h alertHeap) Len() int { return len(h) }

func (h alertHeap) Less(i, j int) bool {
	return h[i].alert.FireAt.Before(h[j].alert.FireAt)
}

func (h alertHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *alertHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *alertHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

type Engine struct {
	mu      sync.Mutex
	queue   alertHeap
	byID    map[string]*entry
	out     chan Alert
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped atomic.Uint64
	now     func() time.Time
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		byID:   map[string]*entry{},
		out:    make(chan Alert, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

func (e *Engine) C() <-chan Alert {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	go e.loop()
}

// Stop ends the loop and closes C.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule adds a, or replaces the pending alert with the same ID.
func (e *Engine) Schedule(a Alert) error {
	if a.FireAt.IsZero() {
		return ErrInvalidFireTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	if cur, ok := e.byID[a.ID]; ok {
		cur.alert = a
		heap.Fix(&e.queue, cur.index)
	} else {
		ent := &entry{alert: a}
		heap.Push(&e.queue, ent)
		e.byID[a.ID] = ent
	}
	e.signalWakeup()
	return nil
}

// Cancel drops the pending alert for id, reporting whether one existed.
func (e *Engine) Cancel(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&e.queue, ent.index)
	delete(e.byID, id)
	e.signalWakeup()
	return true
}

// Sync replaces every pending alert with one per event that has not yet
// started, firing lead before EventFrom. Alerts whose fire time has already
// passed fire immediately.
func (e *Engine) Sync(events []model.CalendarEvent, lead time.Duration) error {
	now := e.now()
	keep := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if ev.EventFrom.IsZero() || !ev.EventFrom.After(now) {
			continue
		}
		keep[ev.ID] = struct{}{}
		err := e.Schedule(Alert{
			ID:       ev.ID,
			Title:    ev.Title,
			StartsAt: ev.EventFrom,
			FireAt:   ev.EventFrom.Add(-lead),
		})
		if err != nil {
			return err
		}
	}
	for _, id := range e.Pending() {
		if _, ok := keep[id]; !ok {
			e.Cancel(id)
		}
	}
	return nil
}

// Pending lists the ids of alerts not yet fired, soonest first.
func (e *Engine) Pending() []string {
	e.mu.Lock()
	snapshot := make(alertHeap, len(e.queue))
	for i, ent := range e.queue {
		snapshot[i] = &entry{alert: ent.alert, index: i}
	}
	e.mu.Unlock()

	ids := make([]string, 0, len(snapshot))
	for snapshot.Len() > 0 {
		ids = append(ids, heap.Pop(&snapshot).(*entry).alert.ID)
	}
	return ids
}

func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, ok := e.peek()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				stopTimer(timer)
				return
			}
		}

		timer = resetTimer(timer, max(next.Sub(e.now()), 0))
		select {
		case <-timer.C:
			for _, a := range e.popDue(e.now()) {
				select {
				case e.out <- a:
				default:
					e.dropped.Add(1)
				}
			}
		case <-e.wakeup:
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].alert.FireAt, true
}

func (e *Engine) popDue(now time.Time) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []Alert
	for len(e.queue) > 0 && !e.queue[0].alert.FireAt.After(now) {
		ent := heap.Pop(&e.queue).(*entry)
		delete(e.byID, ent.alert.ID)
		due = append(due, ent.alert)
	}
	return due
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
