package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/harrisonrobin/nextup/pkg/kvstore"
)

// Key is the KV key the index is stored under.
const Key = "calendar.events"

// KV is the subset of the key-value store the index persists through.
type KV interface {
	Get(key string, v any) error
	Set(key string, v any) error
}

// EventIndex maps task ids to the calendar event mirroring them.
type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	kv       KV
	mu       sync.RWMutex
	dirty    bool
}

// NewEventIndex loads the index from kv.
func NewEventIndex(kv KV) (*EventIndex, error) {
	idx := &EventIndex{Mappings: make(map[string]string), kv: kv}
	if err := kv.Get(Key, &idx.Mappings); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("failed to load event index: %w", err)
	}
	if idx.Mappings == nil {
		idx.Mappings = make(map[string]string)
	}
	return idx, nil
}

// Save writes the index back when it changed.
func (idx *EventIndex) Save() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	if err := idx.kv.Set(Key, idx.Mappings); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != eventID {
		idx.Mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs lists the indexed tasks.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	return ids
}
