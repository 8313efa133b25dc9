package logic

import "time"

// StayOnReleaseGrace is how long ACC2 may read OFF in PowerOutStayOn
// before the drop is honored. ACC2 falls up to half a second ahead of
// ACC1 on some harnesses; without the grace the latch would be lost just
// before the timer should take over.
const StayOnReleaseGrace = 500 * time.Millisecond

// PowerInput is the snapshot one power step consumes.
type PowerInput struct {
	ACC1, ACC2 Sample

	// Prog is the programming decoder phase from the previous iteration.
	// The success blink forces the output off while it is ProgIndOff.
	Prog ProgState

	// Minutes is the stay-on counter; WaitMinutes the configured wait.
	// Both matter only in PowerTimer.
	Minutes, WaitMinutes uint8
}

// PowerEffect is what the loop must do after a power step.
type PowerEffect struct {
	// Relay is the output drive for this iteration.
	Relay bool
	// ArmTimer asks the loop to zero the minute counter and start the
	// second tick. Set on the PowerOutStayOn to PowerTimer transition.
	ArmTimer bool
	// Sleep is the suspension to enter, if any.
	Sleep SleepMode
}

// NextPower returns the state for a freshly evaluated input pair. Used at
// bring-up and when leaving PowerDown or PowerTimer.
func NextPower(acc1, acc2 bool) PowerState {
	if !acc1 {
		return PowerDown
	}
	if acc2 {
		return PowerOutOn
	}
	return PowerOutOff
}

// StepPower advances the power machine by one poll cycle. PowerReset is
// handled by the controller's bring-up path, never here.
func StepPower(s PowerState, in PowerInput) (PowerState, PowerEffect) {
	var eff PowerEffect

	switch s {
	case PowerDown:
		if in.ACC1.On {
			return NextPower(true, in.ACC2.On), eff
		}
		eff.Sleep = SleepDeep
		return s, eff

	case PowerOutOff:
		if !in.ACC1.On {
			return PowerDown, eff
		}
		if in.ACC2.On {
			return PowerOutOn, eff
		}
		return s, eff

	case PowerOutOn:
		eff.Relay = in.Prog != ProgIndOff
		if !in.ACC1.On {
			return PowerDown, eff
		}
		if !in.ACC2.On {
			return PowerOutOff, eff
		}
		return s, eff

	case PowerOutStayOn:
		eff.Relay = in.Prog != ProgIndOff
		if !in.ACC1.On {
			eff.ArmTimer = true
			return PowerTimer, eff
		}
		if !in.ACC2.On && in.ACC2.OffRun > StayOnReleaseGrace {
			return PowerOutOff, eff
		}
		return s, eff

	case PowerTimer:
		eff.Relay = true
		if in.ACC1.On {
			return NextPower(true, in.ACC2.On), eff
		}
		if in.Minutes >= in.WaitMinutes {
			return PowerDown, eff
		}
		eff.Sleep = SleepLight
		return s, eff
	}

	return s, eff
}
