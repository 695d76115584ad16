package domain

import (
	"fmt"
	"strings"
	"time"
)

// History notes recorded automatically by the service.
const (
	NoteCreated = "Pedido creado"
	NoteUpdated = "Pedido actualizado"
)

// HistoryEntry is an append-only audit record of an order status.
type HistoryEntry struct {
	ID         int64
	OrderID    int64
	Status     Status
	UserID     int64
	Notes      string
	RecordedAt time.Time
}

// NewHistoryEntry records status for orderID by userID.
func NewHistoryEntry(orderID int64, status Status, userID int64, notes string, now time.Time) HistoryEntry {
	return HistoryEntry{
		OrderID:    orderID,
		Status:     status,
		UserID:     userID,
		Notes:      strings.TrimSpace(notes),
		RecordedAt: now,
	}
}

// TransitionNote describes a status change when the caller gave no observation.
func TransitionNote(from, to Status) string {
	return fmt.Sprintf("Cambio de estado: %s → %s", from, to)
}
