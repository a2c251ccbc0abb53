package kitchen

import "strings"

type Station string

const (
	StationHot     Station = "hot"
	StationCold    Station = "cold"
	StationBar     Station = "bar"
	StationDefault Station = "default"
)

// keywordOrder is the precedence used when a category name matches several sets.
var keywordOrder = []Station{StationBar, StationCold, StationHot}

func ParseStation(s string) (Station, bool) {
	switch st := Station(strings.ToLower(strings.TrimSpace(s))); st {
	case StationHot, StationCold, StationBar, StationDefault:
		return st, true
	default:
		return "", false
	}
}

func (s Station) String() string {
	return string(s)
}

type TicketStatus string

const (
	TicketQueued  TicketStatus = "queued"
	TicketCooking TicketStatus = "cooking"
	TicketReady   TicketStatus = "ready"
	TicketBumped  TicketStatus = "bumped"
)

func (s TicketStatus) String() string {
	return string(s)
}
