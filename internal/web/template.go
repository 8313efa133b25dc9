package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/mthorpe/relayctl/internal/status"
)

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": formatUptime,
	"run": func(d time.Duration) string {
		return fmt.Sprintf("%.1fs", d.Seconds())
	},
	"onOff": onOff,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Relay Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Relay Controller</h1>

<h2>State</h2>
<table>
<tr><th>Power</th><td>{{.Power}}</td></tr>
<tr><th>Output</th><td class="{{if .Relay}}on{{else}}off{{end}}">{{onOff .Relay}}</td></tr>
<tr><th>Stay-On Gesture</th><td>{{.StayOn}}</td></tr>
<tr><th>Programming</th><td>{{.Program}}{{if .Flashes}} ({{.Flashes}} flashes){{end}}</td></tr>
<tr><th>ACC1 (ignition)</th><td class="{{if .ACC1.On}}on{{else}}off{{end}}">{{if .ACC1.On}}ON for {{run .ACC1.OnRun}}{{else}}OFF for {{run .ACC1.OffRun}}{{end}}</td></tr>
<tr><th>ACC2 (switch)</th><td class="{{if .ACC2.On}}on{{else}}off{{end}}">{{if .ACC2.On}}ON for {{run .ACC2.OnRun}}{{else}}OFF for {{run .ACC2.OffRun}}{{end}}</td></tr>
<tr><th>Wait</th><td>{{.WaitMinutes}} min</td></tr>
<tr><th>Timer</th><td>{{.TimerMinutes}} / {{.WaitMinutes}} min</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Relay ON</th><td>{{.Counts.RelayOn}}</td></tr>
<tr><th>Relay OFF</th><td>{{.Counts.RelayOff}}</td></tr>
<tr><th>Stay-On Armed</th><td>{{.Counts.StayOn}}</td></tr>
<tr><th>Timer Started</th><td>{{.Counts.Timer}}</td></tr>
<tr><th>Programmed</th><td>{{.Counts.Programmed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>GPIO</th><td>{{.Config.Chip}} (acc1={{.Config.PinACC1}} acc2={{.Config.PinACC2}} out1={{.Config.PinOut1}} out2={{.Config.PinOut2}})</td></tr>
<tr><th>Store</th><td>{{.Config.StorePath}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
