// Package telemetry is a minimal logging and counter package.
// Counters have nowhere to go yet except the log output at shutdown.
package telemetry

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Logger interface {
	Println(v ...any)
}

type telemetryData struct {
	logger Logger

	mu       sync.Mutex
	counters map[string]int

	trace bool
}

var data = telemetryData{
	counters: make(map[string]int),
	trace:    os.Getenv("ACTIVITYSIFT_TRACE") != "",
}

func init() {
	l := log.New(os.Stdout, "", 0)
	l.SetOutput(stampedWriter{})
	data.logger = l
}

type stampedWriter struct{}

func (w stampedWriter) Write(b []byte) (int, error) {
	return fmt.Print(time.Now().UTC().Format("2006-01-02 15:04:05") + " " + string(b))
}

func Log(format string, args ...any) {
	data.logger.Println(fmt.Sprintf(format, args...))
}

// Trace logs only when ACTIVITYSIFT_TRACE is set in the environment.
func Trace(format string, args ...any) {
	if data.trace {
		Log(format, args...)
	}
}

func Error(err error, format string, args ...any) {
	data.logger.Println("ERROR", fmt.Sprintf(format, args...), fmt.Sprintf("[%s]", err))
	Increment("errors", 1)
}

// Request logs essential information about an HTTP request being served.
func Request(r *http.Request, format string, args ...any) {
	data.logger.Println(fmt.Sprintf(format, args...), r.Method, r.URL)
}

// Increment adds to a named counter, thread-safe.
func Increment(name string, n int) {
	data.mu.Lock()
	defer data.mu.Unlock()
	data.counters[name] += n
}

func GetCounter(name string) int {
	data.mu.Lock()
	defer data.mu.Unlock()
	return data.counters[name]
}

// LogCounters writes all recorded counters as a single log line.
func LogCounters() {
	s := make([]string, 0)
	data.mu.Lock()
	for k, v := range data.counters {
		s = append(s, fmt.Sprintf("%s=%d", k, v))
	}
	data.mu.Unlock()
	if len(s) == 0 {
		s = append(s, "no counters were recorded")
	}
	sort.Strings(s)
	Log(strings.Join(s, ", "))
}
