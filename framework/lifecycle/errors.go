package lifecycle

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/exp/slices"
)

// DeclarationProblem describes one thing that was wrong with a suite declaration. Path is the
// suite that was open (or being validated) at the time; it is empty at the top level.
type DeclarationProblem struct {
	Path    Path
	Message string
}

func (p DeclarationProblem) String() string {
	if len(p.Path) == 0 {
		return p.Message
	}
	return fmt.Sprintf("[%s]: %s", p.Path, p.Message)
}

// DeclarationError is returned by Builder.Build and Run when the suite tree is malformed. It
// indicates a mistake in the declarations themselves, so nothing is executed.
type DeclarationError struct {
	Problems []DeclarationProblem
}

func (e *DeclarationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return "malformed suite declaration: " + strings.Join(parts, "; ")
}

// IsDeclarationError returns true if err is or wraps a *DeclarationError.
func IsDeclarationError(err error) bool {
	var de *DeclarationError
	return errors.As(err, &de)
}

// ErrorWithStacktrace is an assertion failure annotated with the location it was raised from.
type ErrorWithStacktrace struct {
	Message    string
	Stacktrace []StacktraceInfo
}

// StacktraceInfo is one frame of an ErrorWithStacktrace.
type StacktraceInfo struct {
	FileName string
	Package  string
	Function string
	Line     int
}

func (e ErrorWithStacktrace) Error() string { return e.Message }

func (s StacktraceInfo) String() string {
	packageName := strings.TrimPrefix(s.Package, moduleRoot()+"/")
	return fmt.Sprintf("%s.%s (%s:%d)", packageName, s.Function, s.FileName, s.Line)
}

var (
	testifyHeader = regexp.MustCompile(`^(?s:\s*Error Trace:.*\sError:\s*)`)
	testifyIndent = regexp.MustCompile("\n\t +\t")
)

// assertionFailure turns a message from Errorf into a case error. testify's own location
// header and indentation are removed, since stack replaces them.
func assertionFailure(message string, stack []StacktraceInfo) error {
	if strings.Contains(message, "Error Trace:") {
		message = strings.TrimSpace(testifyHeader.ReplaceAllLiteralString(message, ""))
		message = testifyIndent.ReplaceAllLiteralString(message, "\n")
	}
	if len(stack) == 0 {
		return errors.New(message)
	}
	return ErrorWithStacktrace{Message: message, Stacktrace: stack}
}

// runnerPackage is the import path of this package, whose frames are left out of stacktraces.
var runnerPackage = thisPackage()

func thisPackage() string {
	pc, _, _, _ := runtime.Caller(0)
	if f := runtime.FuncForPC(pc); f != nil {
		pkg, _ := splitFuncName(f.Name())
		return pkg
	}
	return "?"
}

// moduleRoot is the first three components of the runner's import path, which StacktraceInfo
// trims from package names.
func moduleRoot() string {
	parts := strings.SplitN(runnerPackage, "/", 4)
	return strings.Join(parts[:min(len(parts), 3)], "/")
}

// captureStack returns the frames of the caller's goroutine up to the point where Run called
// into a case or hook. Frames of the functions named in helpers are omitted, and so are this
// package's own frames unless includeRunner is true.
func captureStack(includeRunner bool, helpers []string) []StacktraceInfo {
	pcs := make([]uintptr, 100)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	ret := []StacktraceInfo{}
	for {
		frame, more := frames.Next()
		pkg, fn := splitFuncName(frame.Function)
		if pkg == runnerPackage && (fn == "Run" || fn == "RunDeclared") {
			break
		}
		if (includeRunner || pkg != runnerPackage) && !slices.Contains(helpers, frame.Function) {
			ret = append(ret, StacktraceInfo{
				FileName: path.Base(frame.File),
				Package:  pkg,
				Function: fn,
				Line:     frame.Line,
			})
		}
		if !more {
			break
		}
	}
	return ret
}

// splitFuncName splits a qualified function name such as "example.com/a/b.(*T).M" into
// "example.com/a/b" and "(*T).M".
func splitFuncName(qualified string) (pkg, fn string) {
	lastSlash := strings.LastIndex(qualified, "/")
	dot := strings.Index(qualified[lastSlash+1:], ".")
	if dot < 0 {
		return qualified, ""
	}
	end := lastSlash + 1 + dot
	return qualified[:end], qualified[end+1:]
}
