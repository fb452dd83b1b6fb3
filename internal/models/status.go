package models

import "time"

// OrderStatus is the kitchen lifecycle state of an order.
type OrderStatus string

const (
	StatusNew       OrderStatus = "new"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
)

// Statuses lists every status in lifecycle order.
var Statuses = []OrderStatus{StatusNew, StatusPreparing, StatusReady}

// ParseStatus converts boundary input into an OrderStatus.
func ParseStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusNew, StatusPreparing, StatusReady:
		return st, nil
	}
	return "", NewValidationError("status", "unknown status "+s)
}

// Next returns the only status reachable from s. Ready is terminal.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusNew:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusReady, true
	}
	return "", false
}

// Rank is the position of s in the lifecycle, or -1 for unknown values.
func (s OrderStatus) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// ActionLabel is the kitchen action that moves an order out of s.
func (s OrderStatus) ActionLabel() string {
	switch s {
	case StatusNew:
		return "start preparing"
	case StatusPreparing:
		return "mark ready"
	}
	return ""
}

// CanTransition checks if from->to is allowed.
func CanTransition(from, to OrderStatus) bool {
	next, ok := from.Next()
	return ok && next == to
}

// SetStatus moves o to target, stamping ReadyAt when the order becomes ready.
// It never touches Total and bumps Revision on success.
func (o *Order) SetStatus(target OrderStatus, at time.Time) error {
	if !CanTransition(o.Status, target) {
		if _, ok := o.Status.Next(); !ok {
			return &TransitionError{From: o.Status}
		}
		return &TransitionError{From: o.Status, To: target}
	}
	o.Status = target
	if target == StatusReady {
		readyAt := at
		o.ReadyAt = &readyAt
	}
	o.Revision++
	return nil
}
