package logic

import "time"

// EventType identifies a reportable controller transition.
type EventType string

const (
	EventRelayOn      EventType = "RELAY_ON"
	EventRelayOff     EventType = "RELAY_OFF"
	EventStayOnArmed  EventType = "STAY_ON_ARMED"
	EventTimerStarted EventType = "TIMER_STARTED"
	EventTimerExpired EventType = "TIMER_EXPIRED"
	EventProgrammed   EventType = "PROGRAMMED"
)

// Event is a controller transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Power     PowerState
	// Relay is the output drive after the transition.
	Relay bool
	// WaitMinutes is the stay-on wait in effect after the transition; for
	// EventProgrammed this is the freshly persisted value.
	WaitMinutes uint8
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	RelayOn    int
	RelayOff   int
	StayOn     int
	Timer      int
	Programmed int
}

// HeartbeatData contains information for a periodic heartbeat event.
type HeartbeatData struct {
	Timestamp   time.Time
	Uptime      time.Duration
	Power       PowerState
	Relay       bool
	WaitMinutes uint8
	Counts      EventCounts
}
