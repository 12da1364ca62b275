package framework

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the runner. *log.Logger satisfies it.
type Logger interface {
	Println(args ...interface{})
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Println(...interface{})        {}
func (nullLogger) Printf(string, ...interface{}) {}

// NullLogger returns a Logger that discards everything.
func NullLogger() Logger { return nullLogger{} }

// CapturedMessage is one line of output recorded by a CapturingLogger.
type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is the full output recorded for a test scope, in order.
type CapturedOutput []CapturedMessage

// CapturingLogger records all output written to a test scope.
//
// A scope can inherit from an enclosing scope with Inherit: the inheriting logger starts out
// with a copy of everything the enclosing logger has recorded so far, and while it is attached,
// anything further written to the enclosing logger is recorded by the inheriting one instead.
// This is how output written by a suite's "before all" hook shows up in each of its cases.
type CapturingLogger struct {
	output    []CapturedMessage
	followers []*CapturingLogger
	lock      sync.Mutex
}

func (l *CapturingLogger) Println(args ...interface{}) {
	l.record(strings.TrimRight(fmt.Sprintln(args...), "\r\n"))
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.record(fmt.Sprintf(message, args...))
}

func (l *CapturingLogger) record(message string) {
	l.deliver(CapturedMessage{Time: time.Now(), Message: message})
}

func (l *CapturingLogger) deliver(m CapturedMessage) {
	l.lock.Lock()
	followers := l.followers
	if len(followers) == 0 {
		l.output = append(l.output, m)
	}
	l.lock.Unlock()
	for _, f := range followers {
		f.deliver(m)
	}
}

// Output returns a snapshot of everything recorded so far.
func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append(CapturedOutput(nil), l.output...)
}

// Inherit attaches l to parent and returns a function that detaches it again.
func (l *CapturingLogger) Inherit(parent *CapturingLogger) (detach func()) {
	parent.lock.Lock()
	parent.followers = append(append([]*CapturingLogger(nil), parent.followers...), l)
	inherited := append([]CapturedMessage(nil), parent.output...)
	parent.lock.Unlock()

	l.lock.Lock()
	l.output = append(inherited, l.output...)
	l.lock.Unlock()

	return func() {
		parent.lock.Lock()
		defer parent.lock.Unlock()
		kept := make([]*CapturingLogger, 0, len(parent.followers))
		for _, f := range parent.followers {
			if f != l {
				kept = append(kept, f)
			}
		}
		parent.followers = kept
	}
}

// ToString formats the output one message per line, each line starting with prefix.
func (output CapturedOutput) ToString(prefix string) string {
	lines := make([]string, 0, len(output))
	for _, m := range output {
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, m.Time.Format(timestampFormat), m.Message))
	}
	return strings.Join(lines, "\n")
}

type prefixedLogger struct {
	base   Logger
	prefix string
}

// LoggerWithPrefix returns a Logger that adds a prefix to every message.
func LoggerWithPrefix(baseLogger Logger, prefix string) Logger {
	return prefixedLogger{baseLogger, prefix}
}

func (p prefixedLogger) Println(args ...interface{}) {
	p.base.Println(append([]interface{}{p.prefix}, args...)...)
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.base.Printf(p.prefix+message, args...)
}
