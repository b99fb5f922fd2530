package core

import (
	"testing"
	"time"
)

func TestAuditLogRecord(t *testing.T) {
	log := NewAuditLog(10)
	e := log.Record(AuditEntry{Action: ActionNewDataset, Revision: 3})

	if e.ID == "" {
		t.Error("entry should get an id")
	}
	if e.Severity != SeverityCritical {
		t.Errorf("severity = %q, want critical", e.Severity)
	}
	if e.CreatedAt.IsZero() {
		t.Error("entry should be timestamped")
	}
	got, ok := log.Get(e.ID)
	if !ok || got.Revision != 3 {
		t.Errorf("Get(%s) = %+v, %v", e.ID, got, ok)
	}
}

func TestAuditLogCapacity(t *testing.T) {
	log := NewAuditLog(3)
	for i := 0; i < 5; i++ {
		log.Record(AuditEntry{Action: ActionUnitAdd, Revision: uint64(i)})
	}
	if log.Len() != 3 {
		t.Fatalf("Len = %d, want 3", log.Len())
	}
	entries := log.List(AuditLogFilter{})
	if entries[0].Revision != 4 || entries[2].Revision != 2 {
		t.Errorf("expected newest first and oldest dropped, got %+v", entries)
	}
}

func TestAuditLogFilter(t *testing.T) {
	log := NewAuditLog(0)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	log.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	log.Record(AuditEntry{Action: ActionRelationAdd, Units: []string{"A", "B"}})
	log.Record(AuditEntry{Action: ActionUnitDelete, Units: []string{"C"}})
	log.Record(AuditEntry{Action: ActionRelationAdd, Units: []string{"B", "C"}})

	tests := []struct {
		name   string
		filter AuditLogFilter
		want   int
	}{
		{"all", AuditLogFilter{}, 3},
		{"by action", AuditLogFilter{Action: ActionRelationAdd}, 2},
		{"by severity", AuditLogFilter{Severity: SeverityHigh}, 1},
		{"by unit", AuditLogFilter{Unit: "B"}, 2},
		{"since", AuditLogFilter{Since: base.Add(2 * time.Hour)}, 2},
		{"limit", AuditLogFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(log.List(tt.filter)); got != tt.want {
				t.Errorf("got %d entries, want %d", got, tt.want)
			}
		})
	}
}
