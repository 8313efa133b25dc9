package logic

import "time"

// Programming protocol timing. Flash pulses and the gaps between them stay
// under FlashPulseMax. The three confirm legs (off, on, off) each last
// between ConfirmMin and ConfirmMax; a gap in the dead zone between
// FlashPulseMax and ConfirmMin aborts. The whole sequence may only start
// within ProgramWindow of ACC1 coming on.
const (
	FlashPulseMax = 3 * time.Second
	ConfirmMin    = 4 * time.Second
	ConfirmMax    = 7 * time.Second
	ProgramWindow = 60 * time.Second

	// After the confirming ON edge the output is held for IndicateHold,
	// blinked off until IndicateDone, then the decoder is finished.
	IndicateHold = 2 * time.Second
	IndicateDone = 3 * time.Second
)

// Flash accounting: each counted flash is worth MinutesPerFlash of wait
// time, clamped at MaxFlashes.
const (
	MaxFlashes      = 25
	MinutesPerFlash = 10
)

// WaitMinutesFor converts a flash count to the wait duration to persist.
func WaitMinutesFor(flashes uint8) uint8 {
	if flashes > MaxFlashes {
		flashes = MaxFlashes
	}
	return flashes * MinutesPerFlash
}

// Program is the programming sequence decoder: the current phase plus the
// number of flashes counted so far. The zero value is the reset state.
type Program struct {
	Phase   ProgState
	Flashes uint8
}

// ProgramEffect reports a confirmed sequence. Minutes is the clamped wait
// duration to persist and adopt.
type ProgramEffect struct {
	Commit  bool
	Minutes uint8
}

// Step advances the decoder by one poll cycle. It runs only while ACC1 is
// debounced ON; the controller zeroes the decoder the moment ACC1 reads
// OFF.
func (p Program) Step(acc1, acc2 Sample) (Program, ProgramEffect) {
	var eff ProgramEffect

	switch p.Phase {
	case ProgFlashOn:
		if acc2.OnRun > FlashPulseMax {
			return Program{}, eff
		}
		if !acc2.On {
			p.Flashes++
			p.Phase = ProgFlashOff
		}
		return p, eff

	case ProgFlashOff:
		if acc2.OffRun > ConfirmMax {
			return Program{}, eff
		}
		if acc2.On {
			switch {
			case acc2.OffRun > ConfirmMin:
				// The long gap ends the flash phase; this ON starts the
				// confirm sequence.
				p.Phase = ProgEndOn
			case acc2.OffRun > FlashPulseMax:
				// Dead zone between flash gap and confirm gap.
				return Program{}, eff
			default:
				p.Phase = ProgFlashOn
			}
		}
		return p, eff

	case ProgEndOn:
		if acc2.OnRun > ConfirmMax {
			return Program{}, eff
		}
		if !acc2.On {
			if acc2.OnRun <= ConfirmMin {
				return Program{}, eff
			}
			p.Phase = ProgEndOff
		}
		return p, eff

	case ProgEndOff:
		if acc2.OffRun > ConfirmMax {
			return Program{}, eff
		}
		if acc2.On {
			if acc2.OffRun <= ConfirmMin {
				return Program{}, eff
			}
			eff.Commit = true
			eff.Minutes = WaitMinutesFor(p.Flashes)
			p.Phase = ProgIndOn
		}
		return p, eff

	case ProgIndOn:
		if !acc2.On {
			return Program{}, eff
		}
		if acc2.OnRun > IndicateHold {
			p.Phase = ProgIndOff
		}
		return p, eff

	case ProgIndOff:
		if !acc2.On {
			return Program{}, eff
		}
		if acc2.OnRun > IndicateDone {
			return Program{}, eff
		}
		return p, eff

	default: // ProgReset
		// The sequence may only start early in ACC1's ON run. The level
		// check, not an edge, starts the decoder, so a secondary that is
		// simply on keeps cycling through ProgFlashOn until it aborts.
		if acc1.OnRun <= ProgramWindow && acc2.On {
			return Program{Phase: ProgFlashOn}, eff
		}
		return p, eff
	}
}
