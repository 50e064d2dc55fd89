package schedule

import (
	"time"

	"timeboxer/internal/model"
)

// historyLimit bounds the undo stack; the oldest entry is evicted silently.
const historyLimit = 100

// SlotChange records one slot's task before and after a mutation.
type SlotChange struct {
	SlotID     string
	BeforeTask *model.Task
	AfterTask  *model.Task
}

// HistoryEntry groups the slot changes of one logical user action.
type HistoryEntry struct {
	Label   string
	At      time.Time
	Changes []SlotChange
}

// history keeps linear undo/redo stacks of slot mutations. Any new entry
// invalidates the redo stack; there is no branching.
type history struct {
	past   []HistoryEntry
	future []HistoryEntry
}

func (h *history) push(entry HistoryEntry) {
	if len(entry.Changes) == 0 {
		return
	}
	h.past = append(h.past, entry)
	if len(h.past) > historyLimit {
		h.past = h.past[1:]
	}
	h.future = nil
}

func (h *history) popPast() (HistoryEntry, bool) {
	if len(h.past) == 0 {
		return HistoryEntry{}, false
	}
	entry := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return entry, true
}

func (h *history) popFuture() (HistoryEntry, bool) {
	if len(h.future) == 0 {
		return HistoryEntry{}, false
	}
	entry := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return entry, true
}
