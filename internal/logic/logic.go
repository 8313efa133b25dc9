// Package logic contains the pure decision logic for the relay controller:
// the power control machine, the stay-on gesture detector and the
// programming sequence decoder.
// No hardware dependencies; time enters only as sampled level durations,
// which keeps every transition testable.
package logic

import "time"

// Sample is one debounced observation of a sense input, captured by the
// poll loop's snapshot.
type Sample struct {
	// On is the debounced level.
	On bool

	// OnRun is the length of the current ON run. While the line is OFF it
	// holds the final length of the previous ON run.
	OnRun time.Duration

	// OffRun is the length of the current OFF run. While the line is ON
	// it holds the final length of the previous OFF run.
	OffRun time.Duration
}

// PowerState is the power control machine state.
type PowerState uint8

const (
	// PowerReset means bring-up has not run yet.
	PowerReset PowerState = iota
	// PowerDown: ACC1 off, output off, deep suspend between polls.
	PowerDown
	// PowerOutOff: ACC1 on, output off.
	PowerOutOff
	// PowerOutOn: ACC1 and ACC2 on, output on.
	PowerOutOn
	// PowerOutStayOn: output on and latched by the stay-on gesture.
	PowerOutStayOn
	// PowerTimer: ACC1 off, output held on until the wait expires.
	PowerTimer
)

func (s PowerState) String() string {
	switch s {
	case PowerReset:
		return "RESET"
	case PowerDown:
		return "DOWN"
	case PowerOutOff:
		return "OUT_OFF"
	case PowerOutOn:
		return "OUT_ON"
	case PowerOutStayOn:
		return "OUT_STAY_ON"
	case PowerTimer:
		return "TIMER"
	}
	return "UNKNOWN"
}

// StayOnState is the gesture detector state.
type StayOnState uint8

const (
	StayOnReset StayOnState = iota
	StayOnWaitOn
	StayOnWaitOff
)

func (s StayOnState) String() string {
	switch s {
	case StayOnReset:
		return "RESET"
	case StayOnWaitOn:
		return "WAIT_ON"
	case StayOnWaitOff:
		return "WAIT_OFF"
	}
	return "UNKNOWN"
}

// ProgState is the programming sequence decoder phase.
type ProgState uint8

const (
	ProgReset ProgState = iota
	ProgFlashOn
	ProgFlashOff
	ProgEndOn
	ProgEndOff
	ProgIndOn
	ProgIndOff
)

func (s ProgState) String() string {
	switch s {
	case ProgReset:
		return "RESET"
	case ProgFlashOn:
		return "FLASH_ON"
	case ProgFlashOff:
		return "FLASH_OFF"
	case ProgEndOn:
		return "END_ON"
	case ProgEndOff:
		return "END_OFF"
	case ProgIndOn:
		return "IND_ON"
	case ProgIndOff:
		return "IND_OFF"
	}
	return "UNKNOWN"
}

// SleepMode selects the suspend depth the loop enters after a power step.
type SleepMode uint8

const (
	SleepNone SleepMode = iota
	// SleepDeep stops everything until an input edge.
	SleepDeep
	// SleepLight keeps the periodic second tick running.
	SleepLight
)
