package lifecycle

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/launchdarkly/suite-runner/framework"
)

// T is the scope that a case body or hook runs in. It is very similar to Go's testing.T, and
// satisfies the TestingT interfaces of testify's assert and require packages.
//
// Errorf may be called from any goroutine, which is what an asynchronous action will usually
// need. FailNow, Skip and SkipWithReason end the scope by panicking, so like their testing.T
// equivalents they must be called from the goroutine that the runner invoked the action on.
type T struct {
	id          Path
	config      *Configuration
	debugLogger *framework.CapturingLogger
	onError     func(error)
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperFns   []string
	closed      bool
	lock        sync.Mutex
}

// scopeResult is what the runner reads back from a T once its action has finished.
type scopeResult struct {
	failed     bool
	skipped    bool
	skipReason string
	errors     []error
}

func (r scopeResult) reason() string { return joinErrors(r.errors) }

func newScope(id Path, config *Configuration, logger *framework.CapturingLogger) *T {
	return &T{id: id, config: config, debugLogger: logger}
}

// execute runs the action to completion and returns the scope's final state. For an Async
// action, completion means the first call to Done, an exit through FailNow/Skip/panic, or the
// configured timeout, whichever happens first.
func (t *T) execute(action Action) scopeResult {
	if action.sync != nil {
		t.protect(func() { action.sync(t) })
	} else if action.async != nil {
		t.executeAsync(action.async)
	}
	t.runCleanups()
	t.lock.Lock()
	t.closed = true
	t.lock.Unlock()
	return t.result()
}

func (t *T) executeAsync(fn func(*T, Done)) {
	signal := make(chan error, 1)
	var once sync.Once
	done := Done(func(err error) {
		once.Do(func() { signal <- err })
	})
	if !t.protect(func() { fn(t, done) }) {
		return
	}
	var expired <-chan time.Time
	if timeout := t.config.Timeout; timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case err := <-signal:
		if err != nil {
			t.fail(err)
		}
	case <-expired:
		t.fail(fmt.Errorf("timeout of %dms exceeded; make sure the done callback is called",
			t.config.Timeout.Milliseconds()))
	}
}

// protect calls fn, converting FailNow/Skip exits and unexpected panics into scope state. It
// returns false if fn did not return normally.
func (t *T) protect(fn func()) (returned bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if scope, ok := r.(*T); ok && scope == t {
			t.lock.Lock()
			noMessage := !t.skipped && len(t.errors) == 0
			t.lock.Unlock()
			if noMessage {
				t.fail(errors.New("test failed with no failure message"))
			}
			return
		}
		t.fail(fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack())))
	}()
	fn()
	return true
}

func (t *T) runCleanups() {
	t.lock.Lock()
	cleanups := t.cleanups
	t.cleanups = nil
	t.lock.Unlock()
	for i := len(cleanups) - 1; i >= 0; i-- {
		t.protect(cleanups[i])
	}
}

func (t *T) result() scopeResult {
	t.lock.Lock()
	defer t.lock.Unlock()
	return scopeResult{
		failed:     t.failed,
		skipped:    t.skipped && !t.failed,
		skipReason: t.skipReason,
		errors:     append([]error(nil), t.errors...),
	}
}

// fail records an error. Once the scope is closed, a goroutine left over from a timed-out
// action can still call Errorf, and that is ignored.
func (t *T) fail(err error) {
	t.lock.Lock()
	if t.closed {
		t.lock.Unlock()
		return
	}
	t.failed = true
	t.errors = append(t.errors, err)
	onError := t.onError
	t.lock.Unlock()
	if onError != nil {
		onError(err)
	}
}

// ID returns the path of the case this scope belongs to, or of the suite for an "all" hook.
func (t *T) ID() Path {
	return t.id
}

// Failed returns true if anything has failed in this scope so far.
func (t *T) Failed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.failed
}

// Errorf reports a failure. It does not stop the scope, but the case or hook will be marked
// as failed with this message.
//
// You will rarely use this method directly; it is part of this type's implementation of the
// TestingT interfaces, allowing it to be called from assertion helpers.
func (t *T) Errorf(format string, args ...interface{}) {
	t.lock.Lock()
	helperFns := append([]string(nil), t.helperFns...)
	t.lock.Unlock()
	err := assertionFailure(fmt.Sprintf(format, args...), captureStack(false, helperFns))
	t.fail(err)
}

// FailNow marks the scope as failed and immediately ends it.
func (t *T) FailNow() {
	t.lock.Lock()
	closed := t.closed
	t.failed = t.failed || !closed
	t.lock.Unlock()
	t.exit(closed)
}

// Skip immediately ends the scope and reports the case as pending.
func (t *T) Skip() {
	t.lock.Lock()
	closed := t.closed
	t.skipped = t.skipped || !closed
	t.lock.Unlock()
	t.exit(closed)
}

// exit unwinds to protect. After the scope is closed nothing is waiting to recover, so the
// calling goroutine just stops.
func (t *T) exit(closed bool) {
	if closed {
		runtime.Goexit()
	}
	panic(t)
}

// SkipWithReason is equivalent to Skip but records why.
func (t *T) SkipWithReason(reason string) {
	t.lock.Lock()
	t.skipReason = reason
	t.lock.Unlock()
	t.Skip()
}

// Debug writes a message to the captured output for this scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger that writes to the captured output for this scope.
//
// Output is passed to Reporter.CaseFinished at the end of each case, and the reporter decides
// whether to show it. Anything written from a suite's "before all" hooks is included in the
// output of every case in that suite, and hooks that run around a case write to that case's
// output.
func (t *T) DebugLogger() framework.Logger {
	return t.debugLogger
}

// Defer schedules a cleanup function to run when this scope ends for any reason. Cleanups
// run in reverse order of registration.
func (t *T) Defer(cleanupFn func()) {
	t.lock.Lock()
	t.cleanups = append(t.cleanups, cleanupFn)
	t.lock.Unlock()
}

// Context returns the application-defined value from Configuration.Context.
func (t *T) Context() interface{} {
	return t.config.Context
}

// Helper marks the calling function as a test helper that is left out of stacktraces.
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	t.lock.Lock()
	t.helperFns = append(t.helperFns, f.Name())
	t.lock.Unlock()
}
