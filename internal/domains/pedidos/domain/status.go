package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Status enumerates the supplier order lifecycle.
type Status string

const (
	StatusPending   Status = "PENDIENTE"
	StatusInProcess Status = "EN_PROCESO"
	StatusShipped   Status = "ENVIADO"
	StatusDelivered Status = "ENTREGADO"
	StatusCancelled Status = "CANCELADO"
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// transitions is the complete lifecycle policy. Terminal states map to an empty set.
var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusInProcess: true, StatusCancelled: true},
	StatusInProcess: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is listed in the lifecycle table.
func CanTransition(from, to Status) bool {
	next := transitions[from]
	return next != nil && next[to]
}

// AllStatuses lists the lifecycle states in progression order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusInProcess, StatusShipped, StatusDelivered, StatusCancelled}
}

// OpenStatuses lists the states of orders still awaiting delivery.
func OpenStatuses() []Status {
	return []Status{StatusPending, StatusInProcess, StatusShipped}
}

// IsValid reports whether s is a known lifecycle state.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// ParseStatus accepts the wire names case-insensitively.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}
