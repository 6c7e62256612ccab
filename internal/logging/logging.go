// Package logging writes structured JSON log lines. One object per line with
// ts, level, component and event keys, the same shape the HTTP access log uses.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	loc               = time.Local
	verbose bool
)

// SetOutput replaces the destination writer. nil restores os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// SetLocation sets the zone used for the ts field.
func SetLocation(l *time.Location) {
	mu.Lock()
	defer mu.Unlock()
	if l != nil {
		loc = l
	}
}

// SetVerbose enables debug lines.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether debug lines are written.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// Fields are the extra key/value pairs of a log line.
type Fields map[string]any

// Debug logs only in verbose mode.
func Debug(component, event string, f Fields) {
	if !IsVerbose() {
		return
	}
	write("debug", component, event, f)
}

// Info logs an informational event.
func Info(component, event string, f Fields) {
	write("info", component, event, f)
}

// Warn logs a recoverable problem, e.g. a skipped row.
func Warn(component, event string, f Fields) {
	write("warn", component, event, f)
}

// Error logs a failure.
func Error(component, event string, err error, f Fields) {
	if f == nil {
		f = Fields{}
	}
	if err != nil {
		f["error"] = err.Error()
	}
	write("error", component, event, f)
}

func write(level, component, event string, f Fields) {
	mu.Lock()
	defer mu.Unlock()

	entry := make(map[string]any, len(f)+4)
	for k, v := range f {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["component"] = component
	entry["event"] = event

	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(out, `{"level":"error","event":"log_marshal_failed","error":%q}`+"\n", err.Error())
		return
	}
	_, _ = out.Write(append(b, '\n'))
}
