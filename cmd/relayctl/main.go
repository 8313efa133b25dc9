// Command relayctl drives a two-stage accessory power relay from a pair of
// debounced sense lines and publishes state transitions to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mthorpe/relayctl/internal/config"
	"github.com/mthorpe/relayctl/internal/controller"
	"github.com/mthorpe/relayctl/internal/gpio"
	"github.com/mthorpe/relayctl/internal/input"
	"github.com/mthorpe/relayctl/internal/logic"
	"github.com/mthorpe/relayctl/internal/mqtt"
	"github.com/mthorpe/relayctl/internal/sleep"
	"github.com/mthorpe/relayctl/internal/status"
	"github.com/mthorpe/relayctl/internal/timebase"
	"github.com/mthorpe/relayctl/internal/watchdog"
	"github.com/mthorpe/relayctl/internal/web"
)

// MQTT credential env var names. A .env file in the working directory is
// honored so credentials stay out of unit files and shell history.
const (
	envMQTTUsername = "RELAYCTL_MQTT_USERNAME"
	envMQTTPassword = "RELAYCTL_MQTT_PASSWORD"
)

// connRefreshInterval is how often the tracker's MQTT connectivity flag is
// refreshed for the status page.
const connRefreshInterval = 5 * time.Second

type settings struct {
	poll            time.Duration
	chip            string
	pins            gpio.Pins
	storePath       string
	broker          string
	heartbeat       time.Duration
	httpAddr        string
	watchdogDev     string
	watchdogTimeout time.Duration
	printState      bool
}

func main() {
	var s settings
	flag.DurationVar(&s.poll, "poll", 20*time.Millisecond, "control loop poll interval")
	flag.StringVar(&s.chip, "chip", "gpiochip0", "GPIO character device name")
	flag.IntVar(&s.pins.ACC1, "pin-acc1", gpio.PinACC1, "BCM pin number for the primary accessory sense")
	flag.IntVar(&s.pins.ACC2, "pin-acc2", gpio.PinACC2, "BCM pin number for the secondary accessory sense")
	flag.IntVar(&s.pins.Out1, "pin-out1", gpio.PinOut1, "BCM pin number for the primary output enable")
	flag.IntVar(&s.pins.Out2, "pin-out2", gpio.PinOut2, "BCM pin number for the secondary output enable")
	flag.StringVar(&s.storePath, "store", "/var/lib/relayctl/wait-minutes", "stay-on wait persistence file")
	flag.StringVar(&s.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&s.heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	flag.StringVar(&s.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&s.watchdogDev, "watchdog-dev", "", "hardware watchdog device, e.g. /dev/watchdog (empty for the in-process guard)")
	flag.DurationVar(&s.watchdogTimeout, "watchdog-timeout", 2*time.Second, "watchdog timeout")
	flag.BoolVar(&s.printState, "print-state", false, "print the sense line levels and exit")
	flag.Parse()

	// Optional; carries the MQTT credentials on dev boxes.
	_ = godotenv.Load()

	if err := run(s); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(s settings) error {
	board, err := gpio.OpenBoard(s.chip, s.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	if s.printState {
		on1, err := board.ACC1().Read()
		if err != nil {
			return fmt.Errorf("read acc1: %w", err)
		}
		on2, err := board.ACC2().Read()
		if err != nil {
			return fmt.Errorf("read acc2: %w", err)
		}
		fmt.Printf("ACC1: %s, ACC2: %s\n", stateString(on1), stateString(on2))
		return nil
	}

	clock := timebase.NewSystemClock()
	latch := sleep.NewLatch()

	acc1 := input.New("acc1", board.ACC1(), clock, latch.WakeEdge)
	acc2 := input.New("acc2", board.ACC2(), clock, latch.WakeEdge)
	board.ACC1().OnEdge(acc1.HandleEdge)
	board.ACC2().OnEdge(acc2.HandleEdge)

	var wdt watchdog.Timer
	if s.watchdogDev != "" {
		wdt = watchdog.NewDevice(s.watchdogDev, s.watchdogTimeout)
	} else {
		wdt = watchdog.NewSoft(s.watchdogTimeout, func() {
			log.Fatalf("watchdog: control loop stalled for %v", s.watchdogTimeout)
		})
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      s.poll.Milliseconds(),
		DebounceMs:  input.DebounceTime.Milliseconds(),
		HeartbeatMs: s.heartbeat.Milliseconds(),
		Broker:      s.broker,
		HTTPAddr:    s.httpAddr,
		Chip:        s.chip,
		PinACC1:     s.pins.ACC1,
		PinACC2:     s.pins.ACC2,
		PinOut1:     s.pins.Out1,
		PinOut2:     s.pins.Out2,
		StorePath:   s.storePath,
	})

	var publisher mqtt.Publisher
	var connStatus mqtt.ConnectionStatus
	if s.broker != "" {
		real := mqtt.NewRealPublisher(mqtt.BrokerConfig{
			Broker:   s.broker,
			ClientID: "relayctl",
			Username: os.Getenv(envMQTTUsername),
			Password: os.Getenv(envMQTTPassword),
		})
		defer real.Close()
		publisher = real
		connStatus = real

		// Full status snapshot, retained so late subscribers see it.
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if s.httpAddr != "" {
		srv := web.New(s.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", s.httpAddr)
	}

	ctrl := controller.New(controller.Options{
		Clock:    clock,
		ACC1:     acc1,
		ACC2:     acc2,
		Relay:    board.Relay(),
		Store:    config.NewFileStore(s.storePath),
		Watchdog: wdt,
		Sleeper:  latch,
		Tracker:  tracker,
		OnEvent: func(ev logic.Event) {
			log.Printf("event: %s (power=%s output=%s wait=%dm)",
				ev.Type, ev.Power, stateString(ev.Relay), ev.WaitMinutes)
			if publisher == nil {
				return
			}
			if err := publisher.Publish(ev); err != nil {
				// Don't crash on publish failure.
				log.Printf("publish error: %v", err)
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		sig := <-sigCh
		log.Printf("received %v, shutting down", sig)
		publishShutdown(publisher, connStatus, tracker, signalName(sig))
		cancel()
	}()

	go heartbeatLoop(ctx, publisher, connStatus, tracker, s.heartbeat)

	log.Printf("started: poll=%v broker=%s heartbeat=%v store=%s",
		s.poll, brokerOrDisabled(s.broker), s.heartbeat, s.storePath)

	return ctrl.Run(ctx, s.poll)
}

// heartbeatLoop periodically refreshes the tracker's connectivity flag and
// publishes the heartbeat snapshot.
func heartbeatLoop(ctx context.Context, publisher mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, every time.Duration) {
	refresh := time.NewTicker(connRefreshInterval)
	defer refresh.Stop()

	var beat <-chan time.Time
	if every > 0 {
		t := time.NewTicker(every)
		defer t.Stop()
		beat = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-refresh.C:
			if conn != nil {
				tracker.SetMQTTConnected(conn.IsConnected())
			}

		case ts := <-beat:
			snap := tracker.Snapshot()
			hb := logic.HeartbeatData{
				Timestamp:   ts,
				Uptime:      snap.Uptime(),
				Power:       snap.Power,
				Relay:       snap.Relay,
				WaitMinutes: snap.WaitMinutes,
				Counts:      snap.Counts,
			}
			log.Printf("heartbeat: uptime=%v power=%s output=%s wait=%dm relay_on=%d relay_off=%d stay_on=%d timer=%d programmed=%d",
				hb.Uptime.Truncate(time.Second), hb.Power, stateString(hb.Relay), hb.WaitMinutes,
				hb.Counts.RelayOn, hb.Counts.RelayOff, hb.Counts.StayOn, hb.Counts.Timer, hb.Counts.Programmed)

			if publisher == nil {
				continue
			}
			event := mqtt.SystemEvent{
				Timestamp:  hb.Timestamp,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

func publishShutdown(publisher mqtt.Publisher, conn mqtt.ConnectionStatus, tracker *status.Tracker, reason string) {
	if publisher == nil {
		return
	}
	if conn != nil {
		tracker.SetMQTTConnected(conn.IsConnected())
	}
	snap := tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func brokerOrDisabled(broker string) string {
	if broker == "" {
		return "disabled"
	}
	return broker
}
