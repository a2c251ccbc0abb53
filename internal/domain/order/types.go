package order

import "strings"

type Status string

const (
	StatusPlaced    Status = "placed"
	StatusAccepted  Status = "accepted"
	StatusInKitchen Status = "in_kitchen"
	StatusReady     Status = "ready"
	StatusServed    Status = "served"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusRefunded  Status = "refunded"
)

// forward is the happy-path successor of each status.
var forward = map[Status]Status{
	StatusPlaced:    StatusAccepted,
	StatusAccepted:  StatusInKitchen,
	StatusInKitchen: StatusReady,
	StatusReady:     StatusServed,
	StatusServed:    StatusCompleted,
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPlaced, StatusAccepted, StatusInKitchen, StatusReady,
		StatusServed, StatusCompleted, StatusCanceled, StatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled || s == StatusRefunded
}

// CanTransitionTo allows the next forward step, or a side exit to canceled
// or refunded from any status that is not terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCanceled || next == StatusRefunded {
		return true
	}
	return forward[s] == next
}

// TimestampKey is the key stamped into the order's timestamps map on entering s.
func (s Status) TimestampKey() string {
	parts := strings.Split(string(s), "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "") + "At"
}

type Channel string

const (
	ChannelDineIn Channel = "dine_in"
	ChannelPickup Channel = "pickup"
)

func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelDineIn, ChannelPickup:
		return c, nil
	default:
		return "", ErrInvalidChannel
	}
}

func (c Channel) String() string {
	return string(c)
}

// Source is the entry point an order came through; it decides the initial status.
type Source string

const (
	SourceCustomer Source = "customer"
	SourceStaff    Source = "staff"
)

func (s Source) String() string {
	return string(s)
}

// InitialStatus returns the status a new order starts in and the statuses
// whose timestamps are stamped at creation. Staff entry implies acceptance.
func InitialStatus(source Source) (Status, []Status) {
	if source == SourceStaff {
		return StatusAccepted, []Status{StatusPlaced, StatusAccepted}
	}
	return StatusPlaced, []Status{StatusPlaced}
}
