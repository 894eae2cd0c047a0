// Package mocklogger is a ulogger.Logger that records what was logged.
package mocklogger

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/bitcoin-sv/btcx/ulogger"
)

// MockLogger counts calls per level and keeps every formatted line. Loggers
// derived with New or Duplicate share the same record.
type MockLogger struct {
	*record
	service string
}

type record struct {
	mu    sync.Mutex
	calls map[string]int
	lines []string
}

func NewTestLogger() *MockLogger {
	return &MockLogger{record: &record{calls: make(map[string]int)}}
}

func (l *MockLogger) LogLevel() int {
	return 0
}

func (l *MockLogger) SetLogLevel(_ string) {}

func (l *MockLogger) New(service string, _ ...ulogger.Option) ulogger.Logger {
	return &MockLogger{record: l.record, service: service}
}

func (l *MockLogger) Duplicate(_ ...ulogger.Option) ulogger.Logger {
	return l
}

func (l *MockLogger) Debugf(format string, args ...interface{}) {
	l.log("Debugf", format, args...)
}

func (l *MockLogger) Infof(format string, args ...interface{}) {
	l.log("Infof", format, args...)
}

func (l *MockLogger) Warnf(format string, args ...interface{}) {
	l.log("Warnf", format, args...)
}

func (l *MockLogger) Errorf(format string, args ...interface{}) {
	l.log("Errorf", format, args...)
}

// Fatalf is recorded like any other level, it does not exit.
func (l *MockLogger) Fatalf(format string, args ...interface{}) {
	l.log("Fatalf", format, args...)
}

func (l *MockLogger) log(method, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	if l.service != "" {
		line = l.service + ": " + line
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls[method]++
	l.lines = append(l.lines, method+" "+line)
}

func (l *MockLogger) Calls(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls[method]
}

// Contains reports whether any recorded line contains s.
func (l *MockLogger) Contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, line := range l.lines {
		if strings.Contains(line, s) {
			return true
		}
	}

	return false
}

func (l *MockLogger) AssertNumberOfCalls(t *testing.T, method string, expected int) {
	t.Helper()

	if actual := l.Calls(method); actual != expected {
		t.Errorf("expected %d calls to %s, got %d", expected, method, actual)
	}
}

func (l *MockLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = make(map[string]int)
	l.lines = nil
}
