package domain

import "time"

// History event types and their default observations.
const (
	EventRegistered = "Registro"
	EventUpdated    = "Actualización"

	NoteRegistered = "Nueva venta registrada"
	NoteUpdated    = "Venta actualizada"
)

// HistoryEntry is an append-only audit record of a sale.
type HistoryEntry struct {
	ID     int64
	SaleID int64
	// Date is a calendar date at UTC midnight.
	Date   time.Time
	Type   string
	UserID int64
	Note   string
}

func NewHistoryEntry(saleID int64, eventType string, userID int64, note string, now time.Time) HistoryEntry {
	return HistoryEntry{SaleID: saleID, Date: DateOf(now), Type: eventType, UserID: userID, Note: note}
}
