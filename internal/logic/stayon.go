package logic

import "time"

// StayOnPulseMax bounds each leg of the stay-on gesture: ACC2 on for at
// most 3 s, off for at most 3 s, then on again.
const StayOnPulseMax = 3 * time.Second

// StepStayOn advances the gesture detector by one poll cycle. It runs only
// while ACC1 is debounced ON; the controller drops it back to StayOnReset
// the moment ACC1 reads OFF. latched reports a completed gesture, which
// forces the power machine to PowerOutStayOn.
func StepStayOn(s StayOnState, acc2 Sample) (next StayOnState, latched bool) {
	switch s {
	case StayOnWaitOn:
		if acc2.OnRun > StayOnPulseMax {
			return StayOnReset, false
		}
		if !acc2.On {
			return StayOnWaitOff, false
		}
		return s, false

	case StayOnWaitOff:
		if acc2.OffRun > StayOnPulseMax {
			return StayOnReset, false
		}
		if acc2.On {
			return StayOnReset, true
		}
		return s, false

	default: // StayOnReset
		if acc2.On {
			return StayOnWaitOn, false
		}
		return s, false
	}
}
