package main

import (
	"testing"

	"github.com/mthorpe/relayctl/internal/logic"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		arg     string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"1", true, false},
		{"high", true, false},
		{"off", false, false},
		{"0", false, false},
		{"low", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q): err=%v, wantErr=%v", tt.arg, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestHandleCommandDrivesSimulation(t *testing.T) {
	s := newSim()
	s.step()
	if got := s.tracker.Snapshot().Power; got != logic.PowerDown {
		t.Fatalf("initial power: got %s, want DOWN", got)
	}

	s, cont := handleCommand(s, []string{"acc1", "on"})
	if !cont {
		t.Fatal("acc1 should not quit")
	}
	if got := s.tracker.Snapshot().Power; got != logic.PowerOutOff {
		t.Errorf("after acc1 on: got %s, want OUT_OFF", got)
	}

	s, _ = handleCommand(s, []string{"acc2", "on"})
	if got := s.tracker.Snapshot().Power; got != logic.PowerOutOn {
		t.Errorf("after acc2 on: got %s, want OUT_ON", got)
	}

	s, _ = handleCommand(s, []string{"wait", "100ms"})
	if !s.relay.On() {
		t.Error("output should be driven after settling")
	}
}

func TestHandleCommandReset(t *testing.T) {
	s := newSim()
	s.step()
	handleCommand(s, []string{"acc1", "on"})

	fresh, cont := handleCommand(s, []string{"reset"})
	if !cont {
		t.Fatal("reset should not quit")
	}
	if fresh == s {
		t.Error("reset should build a fresh simulation")
	}
	if got := fresh.tracker.Snapshot().Power; got != logic.PowerDown {
		t.Errorf("after reset: got %s, want DOWN", got)
	}
}

func TestHandleCommandQuit(t *testing.T) {
	s := newSim()
	s.step()
	if _, cont := handleCommand(s, []string{"quit"}); cont {
		t.Error("quit should stop the loop")
	}
	if _, cont := handleCommand(s, []string{"exit"}); cont {
		t.Error("exit should stop the loop")
	}
}

func TestHandleCommandUnknownLine(t *testing.T) {
	s := newSim()
	s.step()
	if _, cont := handleCommand(s, []string{"pulse", "acc9", "1s"}); !cont {
		t.Error("bad line name should not quit")
	}
}
