package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport            AuditAction = "import"
	ActionNewDataset        AuditAction = "new_dataset"
	ActionUnitAdd           AuditAction = "unit_add"
	ActionUnitEdit          AuditAction = "unit_edit"
	ActionUnitDelete        AuditAction = "unit_delete"
	ActionRelationAdd       AuditAction = "relation_add"
	ActionRelationRemove    AuditAction = "relation_remove"
	ActionEquivalenceAdd    AuditAction = "equivalence_add"
	ActionEquivalenceRemove AuditAction = "equivalence_remove"
	ActionMemberAdd         AuditAction = "member_add"
	ActionMemberRemove      AuditAction = "member_remove"
	ActionPhaseColor        AuditAction = "phase_color"
	ActionUndo              AuditAction = "undo"
	ActionRedo              AuditAction = "redo"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry records one accepted change to the dataset.
type AuditEntry struct {
	ID        string        `json:"id"`
	Action    AuditAction   `json:"action"`
	Severity  AuditSeverity `json:"severity"`
	Units     []string      `json:"units,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Revision  uint64        `json:"revision"`
	IPAddress string        `json:"ip_address,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionUnitDelete:
		return SeverityHigh
	case ActionNewDataset:
		return SeverityCritical
	case ActionPhaseColor:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// DefaultAuditCapacity bounds the in-memory audit trail.
const DefaultAuditCapacity = 1000

// AuditLog is a bounded, concurrency-safe trail of accepted changes. Once
// full, the oldest entries are dropped.
type AuditLog struct {
	mu       sync.RWMutex
	entries  []AuditEntry
	capacity int
	now      func() time.Time
}

// NewAuditLog keeps at most capacity entries.
func NewAuditLog(capacity int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultAuditCapacity
	}
	return &AuditLog{capacity: capacity, now: time.Now}
}

// Record appends an entry, filling in id, severity and timestamp.
func (l *AuditLog) Record(e AuditEntry) AuditEntry {
	e.ID = uuid.New().String()
	e.Severity = determineSeverity(e.Action)
	e.CreatedAt = l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return e
}

// AuditLogFilter narrows a listing. Zero values match everything.
type AuditLogFilter struct {
	Action   AuditAction
	Severity AuditSeverity
	Unit     string
	Since    time.Time
	Limit    int
}

func (f AuditLogFilter) match(e AuditEntry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
		return false
	}
	if f.Unit != "" {
		for _, u := range e.Units {
			if u == f.Unit {
				return true
			}
		}
		return false
	}
	return true
}

// List returns matching entries, newest first.
func (l *AuditLog) List(f AuditLogFilter) []AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []AuditEntry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if !f.match(l.entries[i]) {
			continue
		}
		out = append(out, l.entries[i])
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Get returns the entry with the given id.
func (l *AuditLog) Get(id string) (AuditEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return AuditEntry{}, false
}

// Len returns the number of retained entries.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
