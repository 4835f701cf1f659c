package action

import (
	"sync"
	"time"
)

// DefaultRetention is the number of audit records kept when Options does
// not set one.
const DefaultRetention = 1000

// Status is the outcome of a dispatched invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// AuditRecord captures one dispatched invocation. Records are never
// modified once appended.
type AuditRecord struct {
	InvocationID string         `json:"invocationId"`
	Action       string         `json:"action"`
	EffectKind   EffectKind     `json:"effectKind"`
	Arguments    map[string]any `json:"arguments"`
	Status       Status         `json:"status"`
	Result       any            `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Duration     time.Duration  `json:"duration"`
}

// clone deep-copies the record's JSON-shaped values so callers cannot
// reach the log's storage.
func (rec AuditRecord) clone() AuditRecord {
	rec.Arguments = snapshot(rec.Arguments)
	rec.Result = snapshotValue(rec.Result)
	return rec
}

// auditLog is a fixed-capacity ring of audit records. Append and eviction
// happen under one lock.
type auditLog struct {
	mu      sync.Mutex
	records []AuditRecord
	start   int
	size    int
	total   uint64
	evicted uint64
}

func newAuditLog(capacity int) *auditLog {
	if capacity <= 0 {
		capacity = DefaultRetention
	}
	return &auditLog{records: make([]AuditRecord, capacity)}
}

// append stores rec and reports whether an older record was evicted.
func (l *auditLog) append(rec AuditRecord) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total++
	capacity := len(l.records)
	if l.size < capacity {
		l.records[(l.start+l.size)%capacity] = rec
		l.size++
		return false
	}
	l.records[l.start] = rec
	l.start = (l.start + 1) % capacity
	l.evicted++
	return true
}

// recent returns up to limit records, most recent first. limit <= 0
// returns every retained record.
func (l *auditLog) recent(limit int) []AuditRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]AuditRecord, 0, n)
	capacity := len(l.records)
	for i := 0; i < n; i++ {
		out = append(out, l.records[(l.start+l.size-1-i)%capacity].clone())
	}
	return out
}

func (l *auditLog) stats() (retained int, total, evicted uint64, capacity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size, l.total, l.evicted, len(l.records)
}
