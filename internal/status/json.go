package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Power         string     `json:"power"`
	StayOn        string     `json:"stay_on"`
	Program       string     `json:"program"`
	Flashes       uint8      `json:"flashes"`
	Relay         string     `json:"relay"`
	ACC1          LineJSON   `json:"acc1"`
	ACC2          LineJSON   `json:"acc2"`
	WaitMinutes   uint8      `json:"wait_minutes"`
	TimerMinutes  uint8      `json:"timer_minutes"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// LineJSON is the JSON representation of one sense line.
type LineJSON struct {
	State    string `json:"state"`
	OnRunMs  int64  `json:"on_run_ms"`
	OffRunMs int64  `json:"off_run_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	RelayOn    int `json:"relay_on"`
	RelayOff   int `json:"relay_off"`
	StayOn     int `json:"stay_on"`
	Timer      int `json:"timer"`
	Programmed int `json:"programmed"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr,omitempty"`
	Chip        string `json:"chip"`
	PinACC1     int    `json:"pin_acc1"`
	PinACC2     int    `json:"pin_acc2"`
	PinOut1     int    `json:"pin_out1"`
	PinOut2     int    `json:"pin_out2"`
	StorePath   string `json:"store"`
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Power:   snap.Power.String(),
		StayOn:  snap.StayOn.String(),
		Program: snap.Program.String(),
		Flashes: snap.Flashes,
		Relay:   onOff(snap.Relay),
		ACC1: LineJSON{
			State:    onOff(snap.ACC1.On),
			OnRunMs:  snap.ACC1.OnRun.Milliseconds(),
			OffRunMs: snap.ACC1.OffRun.Milliseconds(),
		},
		ACC2: LineJSON{
			State:    onOff(snap.ACC2.On),
			OnRunMs:  snap.ACC2.OnRun.Milliseconds(),
			OffRunMs: snap.ACC2.OffRun.Milliseconds(),
		},
		WaitMinutes:   snap.WaitMinutes,
		TimerMinutes:  snap.TimerMinutes,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			RelayOn:    snap.Counts.RelayOn,
			RelayOff:   snap.Counts.RelayOff,
			StayOn:     snap.Counts.StayOn,
			Timer:      snap.Counts.Timer,
			Programmed: snap.Counts.Programmed,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Chip:        snap.Config.Chip,
			PinACC1:     snap.Config.PinACC1,
			PinACC2:     snap.Config.PinACC2,
			PinOut1:     snap.Config.PinOut1,
			PinOut2:     snap.Config.PinOut2,
			StorePath:   snap.Config.StorePath,
		},
	}
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatJSON returns the indented status document served over HTTP. Same
// shape as the MQTT status event, without the event and reason fields.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
