package order

import (
	"time"

	"github.com/bharathakku/delivery-backend/internal/core/domain/model/kernel"
)

// HistoryEntry is one immutable line of the order audit trail.
type HistoryEntry struct {
	status Status
	at     time.Time
	by     kernel.UUID
	role   kernel.Role
	note   string
}

// RestoreHistoryEntry rebuilds an entry read from storage.
func RestoreHistoryEntry(status Status, at time.Time, by kernel.UUID, role kernel.Role, note string) HistoryEntry {
	return HistoryEntry{status: status, at: at, by: by, role: role, note: note}
}

func newHistoryEntry(status Status, actor kernel.Actor, note string, at time.Time) HistoryEntry {
	return HistoryEntry{status: status, at: at, by: actor.UserID(), role: actor.Role(), note: note}
}

func (h HistoryEntry) Status() Status {
	return h.status
}

func (h HistoryEntry) At() time.Time {
	return h.at
}

// By is the user that caused the entry. It is nil for the system actor.
func (h HistoryEntry) By() kernel.UUID {
	return h.by
}

func (h HistoryEntry) Role() kernel.Role {
	return h.role
}

func (h HistoryEntry) Note() string {
	return h.note
}
