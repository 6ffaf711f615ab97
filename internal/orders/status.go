package orders

// Status is persisted as a small integer, wire-compatible with the
// values the storefront already knows: 0 rejected, 1 waiting, 2 submitted, 3 done.
type Status int

const (
	StatusRejected  Status = 0
	StatusWaiting   Status = 1
	StatusSubmitted Status = 2
	StatusDone      Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusRejected:
		return "REJECTED"
	case StatusWaiting:
		return "WAITING_FOR_SUBMIT"
	case StatusSubmitted:
		return "SUBMITTED_UNPAID"
	case StatusDone:
		return "DONE"
	}
	return "UNKNOWN"
}

func (s Status) Valid() bool {
	return s >= StatusRejected && s <= StatusDone
}

// Role is a user's relationship to a specific order.
type Role int

const (
	RoleBuyer Role = iota
	RoleSeller
)

// Action is one of the lifecycle operations a user can trigger on an order.
type Action string

const (
	ActionSubmit Action = "submit"
	ActionDone   Action = "done"
	ActionReject Action = "reject"
	ActionCancel Action = "cancel"
)

// Rule describes who may trigger an action, from which states, where it
// lands, and whether reserved stock is given back.
type Rule struct {
	Actor   Role
	From    map[Status]bool
	To      Status
	Restock bool
}

// transitions is the whole state machine. Reject is allowed both before
// and after submit; cancel only before, and only within CancelWindow.
var transitions = map[Action]Rule{
	ActionSubmit: {Actor: RoleBuyer, From: map[Status]bool{StatusWaiting: true}, To: StatusSubmitted},
	ActionDone:   {Actor: RoleSeller, From: map[Status]bool{StatusSubmitted: true}, To: StatusDone},
	ActionReject: {Actor: RoleSeller, From: map[Status]bool{StatusWaiting: true, StatusSubmitted: true}, To: StatusRejected, Restock: true},
	ActionCancel: {Actor: RoleBuyer, From: map[Status]bool{StatusWaiting: true}, To: StatusRejected, Restock: true},
}

// CanTransition reports whether action may fire from the given status.
func CanTransition(action Action, from Status) bool {
	return transitions[action].From[from]
}

// TargetStatus is where a successful action lands.
func TargetStatus(action Action) Status {
	return transitions[action].To
}
