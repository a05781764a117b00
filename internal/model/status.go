package model

// Status is the delivery state of a notification. Transitions only move
// forward through the graph below; the repository enforces this with guarded
// updates so two workers can never race a notification backward.
//
//	pending → sent → delivered → read
//	pending → failed
//	pending → cancelled
//	pending/sent → expired
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRead, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to the given status is a legal
// forward step.
func (s Status) CanTransition(to Status) bool {
	for _, from := range AllowedFrom(to) {
		if from == s {
			return true
		}
	}
	return false
}

// AllowedFrom returns the set of states from which a notification may enter
// the given status. Used by repositories to build guarded status updates.
func AllowedFrom(to Status) []Status {
	switch to {
	case StatusSent:
		return []Status{StatusPending}
	case StatusDelivered:
		return []Status{StatusSent}
	case StatusRead:
		return []Status{StatusDelivered}
	case StatusFailed:
		return []Status{StatusPending}
	case StatusExpired:
		return []Status{StatusPending, StatusSent}
	case StatusCancelled:
		return []Status{StatusPending}
	}
	return nil
}
