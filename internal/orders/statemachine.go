package orders

import (
	"fmt"
	"time"

	"github.com/neiist-dev/shop-backend/pkg/enums"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
)

// forwardEdges enumerates every legal forward transition. Anything not listed
// here, including self-transitions and edges out of the terminal states, is
// illegal and must fail loudly rather than no-op.
var forwardEdges = map[enums.OrderStatus]map[enums.OrderStatus]bool{
	enums.OrderStatusPending: {
		enums.OrderStatusPaid:      true,
		enums.OrderStatusCancelled: true,
	},
	enums.OrderStatusPaid: {
		enums.OrderStatusReady:     true,
		enums.OrderStatusCancelled: true,
	},
	enums.OrderStatusReady: {
		enums.OrderStatusDelivered: true,
		enums.OrderStatusCancelled: true,
	},
}

// CanTransition reports whether current → target is a legal forward edge.
func CanTransition(current, target enums.OrderStatus) bool {
	return forwardEdges[current][target]
}

// GuardTransition rejects illegal edges with a typed state conflict.
func GuardTransition(current, target enums.OrderStatus) error {
	if CanTransition(current, target) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("illegal transition from %s to %s", current, target))
}

// transitionStamps returns the responsible-party columns written as part of
// the transition's effect. They are never settable independently.
func transitionStamps(target enums.OrderStatus, actingMember string, now time.Time) map[string]any {
	switch target {
	case enums.OrderStatusPaid:
		return map[string]any{"paid_by": actingMember, "paid_at": now}
	case enums.OrderStatusReady:
		return map[string]any{"ready_by": actingMember, "ready_at": now}
	case enums.OrderStatusDelivered:
		return map[string]any{"delivered_by": actingMember, "delivered_at": now}
	case enums.OrderStatusCancelled:
		return map[string]any{"cancelled_by": actingMember, "cancelled_at": now}
	default:
		return map[string]any{}
	}
}
