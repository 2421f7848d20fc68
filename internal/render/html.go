package render

import (
	"html/template"
	"io"

	"github.com/nhdewitt/rabbit/internal/config"
	"github.com/nhdewitt/rabbit/internal/protocol"
)

const HTMLContentType = "text/html; charset=utf-8"

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.Cadence}}">
<title>rabbit {{.Hostname}}</title>
</head>
<body>
<h1>rabbit {{.Version}}</h1>
<p>{{.Hostname}} &middot; {{.OS}} &middot; refresh every {{.Cadence}}s &middot; <a href="/metrics">metrics</a></p>
<table>
<tr><th>CPU</th><td>{{.CPU}} %</td></tr>
<tr><th>Memory</th><td>{{.Memory}} %</td></tr>
<tr><th>Swap</th><td>{{.Swap}} %</td></tr>
{{- if .Power}}
<tr><th>Power</th><td>{{.Power}} W</td></tr>
{{- end}}
</table>
{{- if .Storage}}
<h2>Storage</h2>
<table>
<tr><th>Device</th><th>Mount</th><th>Used %</th><th>Read B/s</th><th>Write B/s</th></tr>
{{- range .Storage}}
<tr><td>{{.Device}}</td><td>{{.Mount}}</td><td>{{.Percent}}</td><td>{{.Read}}</td><td>{{.Write}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .Networks}}
<h2>Network</h2>
<table>
<tr><th>Interface</th><th>Download Mbit/s</th><th>Upload Mbit/s</th></tr>
{{- range .Networks}}
<tr><td>{{.Interface}}</td><td>{{.Download}}</td><td>{{.Upload}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

type storageRow struct {
	Device, Mount, Percent, Read, Write string
}

type networkRow struct {
	Interface, Download, Upload string
}

type statusData struct {
	Version  string
	Hostname string
	OS       string
	Cadence  int
	CPU      string
	Memory   string
	Swap     string
	Power    string
	Storage  []storageRow
	Networks []networkRow
}

// HTML writes the self-refreshing status page for s.
func HTML(w io.Writer, s *protocol.Snapshot, cfg config.Config, version string) error {
	data := statusData{
		Version:  version,
		Hostname: s.Static.Hostname,
		OS:       s.Static.LongOSVersion,
		Cadence:  cfg.Cache,
		CPU:      fixed(s.Processor.Percent),
		Memory:   fixed(s.Memory.Percent),
		Swap:     fixed(s.Swap.Percent),
	}
	if cfg.Power.Enabled && !s.Power.Refreshed.IsZero() {
		data.Power = fixed(s.Power.Watts)
	}

	for _, key := range sortedKeys(s.Storage) {
		d := s.Storage[key]
		data.Storage = append(data.Storage, storageRow{
			Device:  key,
			Mount:   d.MountPoint,
			Percent: fixed(d.Percent),
			Read:    fixed(d.ReadSpeed),
			Write:   fixed(d.WriteSpeed),
		})
	}
	for _, key := range sortedKeys(s.Networks) {
		n := s.Networks[key]
		data.Networks = append(data.Networks, networkRow{
			Interface: key,
			Download:  fixed(n.Download),
			Upload:    fixed(n.Upload),
		})
	}

	return statusPage.Execute(w, data)
}
