package scheduler

import "container/heap"

// RecordHeap stores records ordered by fire time, keyed by record id
type RecordHeap struct {
	items []*Record
	byID  map[string]*Record
}

// NewRecordHeap creates an empty record heap
func NewRecordHeap() *RecordHeap {
	h := &RecordHeap{byID: map[string]*Record{}}
	heap.Init(h)
	return h
}

// Insert adds a record, replacing any record with the same id
func (h *RecordHeap) Insert(r *Record) {
	if r == nil || r.ID == "" || r.At.IsZero() {
		return
	}
	if old, ok := h.byID[r.ID]; ok {
		heap.Remove(h, old.index)
	}
	heap.Push(h, r)
}

// PopRecord removes and returns the earliest record
func (h *RecordHeap) PopRecord() *Record {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*Record)
}

// Peek returns the earliest record without removing it
func (h *RecordHeap) Peek() *Record {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// Get returns the record with the given id
func (h *RecordHeap) Get(id string) (*Record, bool) {
	r, ok := h.byID[id]
	return r, ok
}

// Cancel removes the record with the given id
func (h *RecordHeap) Cancel(id string) bool {
	r, ok := h.byID[id]
	if !ok {
		return false
	}
	heap.Remove(h, r.index)
	return true
}

// Each calls fn for every record in heap order (not sorted order)
func (h *RecordHeap) Each(fn func(*Record)) {
	for _, r := range h.items {
		fn(r)
	}
}

// Len returns the number of records in the heap
func (h *RecordHeap) Len() int {
	return len(h.items)
}

// Less reports whether the record at i fires before the record at j
func (h *RecordHeap) Less(i, j int) bool {
	return h.items[i].At.Before(h.items[j].At)
}

// Swap exchanges the heap items at the provided indexes
func (h *RecordHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push adds a record to the underlying heap implementation
func (h *RecordHeap) Push(x any) {
	r := x.(*Record)
	r.index = len(h.items)
	h.items = append(h.items, r)
	h.byID[r.ID] = r
}

// Pop removes a record from the underlying heap implementation
func (h *RecordHeap) Pop() any {
	old := h.items
	n := len(old)
	if n == 0 {
		return nil
	}
	r := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	r.index = -1
	delete(h.byID, r.ID)
	return r
}
