package models

import (
	"fmt"
	"strings"
)

// TransitionPolicy decides whether an order may move between two statuses.
type TransitionPolicy interface {
	Name() string
	Allow(from, to OrderStatus) error
}

// Permissive allows every transition, including leaving a terminal status
// and cancelling a delivered order. It is the historical behaviour.
type Permissive struct{}

func (Permissive) Name() string { return "permissive" }

func (Permissive) Allow(from, to OrderStatus) error { return nil }

// Strict enforces the delivery lifecycle as an explicit allow-list.
type Strict struct{}

var strictTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusOnTheWay, StatusCancelled},
	StatusOnTheWay:  {StatusDelivered, StatusCancelled},
}

func (Strict) Name() string { return "strict" }

func (Strict) Allow(from, to OrderStatus) error {
	for _, next := range strictTransitions[from] {
		if next == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// NextStatuses returns the statuses reachable from s under the strict policy.
func (Strict) NextStatuses(s OrderStatus) []OrderStatus {
	return append([]OrderStatus(nil), strictTransitions[s]...)
}

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// PolicyByName maps the ORDER_TRANSITIONS setting to a policy.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "permissive":
		return Permissive{}, nil
	case "strict":
		return Strict{}, nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}
