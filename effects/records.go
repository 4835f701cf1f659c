package effects

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/jonwraymond/supportbot/action"
)

// Record is a keyed bag of fields held by a RecordStore.
type Record struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// RecordStore keeps records in memory. Updates merge into existing fields;
// an update to an unknown record creates it unless Strict is set.
type RecordStore struct {
	// Strict rejects updates to records that were never seeded.
	Strict bool

	mu      sync.RWMutex
	records map[string]Record
}

// NewRecordStore creates a store seeded with the given records.
func NewRecordStore(seed ...Record) *RecordStore {
	s := &RecordStore{records: make(map[string]Record, len(seed))}
	for _, r := range seed {
		r.Fields = maps.Clone(r.Fields)
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		s.records[r.ID] = r
	}
	return s
}

// UpdateRecord handles update_record invocations. It expects record_id and
// an optional data object; any other argument is merged as a field too.
func (s *RecordStore) UpdateRecord(ctx context.Context, inv action.Invocation) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := requireString(inv.Arguments, "record_id")
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	for k, v := range inv.Arguments {
		switch k {
		case "record_id":
		case "data":
			if m, ok := v.(map[string]any); ok {
				maps.Copy(changes, m)
				continue
			}
			changes[k] = v
		default:
			changes[k] = v
		}
	}

	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok && s.Strict {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if !ok {
		rec = Record{ID: id, Fields: map[string]any{}}
	}
	rec.Fields = maps.Clone(rec.Fields)
	maps.Copy(rec.Fields, changes)
	rec.UpdatedAt = inv.Timestamp
	s.records[id] = rec
	s.mu.Unlock()

	updated := make([]string, 0, len(changes))
	for k := range changes {
		updated = append(updated, k)
	}
	sort.Strings(updated)

	return map[string]any{
		"recordId":      id,
		"updatedFields": updated,
		"created":       !ok,
	}, nil
}

// Get returns a copy of a record.
func (s *RecordStore) Get(id string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	rec.Fields = maps.Clone(rec.Fields)
	return rec, nil
}

// List returns all records in stable ID order.
func (s *RecordStore) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec := s.records[id]
		rec.Fields = maps.Clone(rec.Fields)
		out = append(out, rec)
	}
	return out
}
