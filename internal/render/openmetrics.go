package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const ContentType = "application/openmetrics-text; version=1.0.0; charset=utf-8"

const namespace = "rabbit"

type metricType string

const (
	gauge   metricType = "gauge"
	counter metricType = "counter"
	info    metricType = "info"
)

type label struct {
	name, value string
}

type sample struct {
	labels []label
	value  string
	ts     time.Time // zero means no timestamp
}

// family is one OpenMetrics metric family. The exposed name is
// rabbit_<name>[_<unit>].
type family struct {
	name    string
	unit    string
	help    string
	typ     metricType
	created string // counter _created value, shared by every sample
	samples []sample
}

func (f *family) add(value string, ts time.Time, labels ...label) {
	f.samples = append(f.samples, sample{labels: labels, value: value, ts: ts})
}

func (f *family) fullName() string {
	name := namespace + "_" + f.name
	if f.unit != "" {
		name += "_" + f.unit
	}
	return name
}

type exposition struct {
	buf bytes.Buffer
}

// write emits the family's metadata and samples. Families without samples
// are omitted entirely.
func (e *exposition) write(f *family) {
	if len(f.samples) == 0 {
		return
	}
	name := f.fullName()

	fmt.Fprintf(&e.buf, "# HELP %s %s\n", name, f.help)
	fmt.Fprintf(&e.buf, "# TYPE %s %s\n", name, f.typ)
	if f.unit != "" {
		fmt.Fprintf(&e.buf, "# UNIT %s %s\n", name, f.unit)
	}

	for _, s := range f.samples {
		switch f.typ {
		case counter:
			e.line(name+"_total", s.labels, s.value, s.ts)
			e.line(name+"_created", s.labels, f.created, s.ts)
		case info:
			e.line(name+"_info", s.labels, "1", time.Time{})
		default:
			e.line(name, s.labels, s.value, s.ts)
		}
	}
}

func (e *exposition) line(name string, labels []label, value string, ts time.Time) {
	e.buf.WriteString(name)
	if len(labels) > 0 {
		e.buf.WriteByte('{')
		for i, l := range labels {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.buf.WriteString(l.name)
			e.buf.WriteString(`="`)
			e.buf.WriteString(escapeLabel(l.value))
			e.buf.WriteByte('"')
		}
		e.buf.WriteByte('}')
	}
	e.buf.WriteByte(' ')
	e.buf.WriteString(value)
	if !ts.IsZero() {
		e.buf.WriteByte(' ')
		e.buf.WriteString(timestamp(ts))
	}
	e.buf.WriteByte('\n')
}

func (e *exposition) eof() {
	e.buf.WriteString("# EOF\n")
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// escapeLabel makes v a valid label value. Process names and sysfs strings
// may hold arbitrary bytes; invalid UTF-8 becomes U+FFFD.
func escapeLabel(v string) string {
	return labelEscaper.Replace(strings.ToValidUTF8(v, "\uFFFD"))
}

// timestamp renders epoch seconds with millisecond precision.
func timestamp(t time.Time) string {
	ms := t.UnixMilli()
	sec, frac := ms/1000, ms%1000
	if frac < 0 {
		sec--
		frac += 1000
	}
	return fmt.Sprintf("%d.%03d", sec, frac)
}

// fixed formats percentages, rates and other derived values.
func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func integer(v uint64) string {
	return strconv.FormatUint(v, 10)
}
