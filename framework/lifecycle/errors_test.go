package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/suite-runner/framework/lifecycle/internal"
)

func TestStacktrace(t *testing.T) {
	_ = runTree(t, Configuration{}, func(b *Builder) {
		b.Describe("stacktrace", func(b *Builder) {
			b.It("without filtering", func(*T) {
				stack := captureStack(true, nil)
				assert.Greater(t, len(stack), 1)
				assert.Equal(t, runnerPackage, stack[0].Package)
				assert.Contains(t, stack[0].Function, "TestStacktrace.")
			})

			b.It("auto-filtering removes runner frames", func(*T) {
				internal.CallOutside(func() {
					stack := captureStack(false, nil)
					require.Len(t, stack, 1)
					// Everything in this package, including this test, and the Go runtime frames
					// below Run are stripped out, leaving only internal.CallOutside.
					assert.Equal(t, runnerPackage+"/internal", stack[0].Package)
					assert.Equal(t, "CallOutside", stack[0].Function)
				})
			})

			b.It("filter out designated helpers", func(*T) {
				helperFunc1(func() {
					helperFunc2(func() {
						stack := captureStack(true, []string{runnerPackage + ".helperFunc2"})
						foundFunc1 := false
						for _, s := range stack {
							if s.Package == runnerPackage && s.Function == "helperFunc1" {
								foundFunc1 = true
							} else if s.Package == runnerPackage && s.Function == "helperFunc2" {
								require.Fail(t, "helperFunc2 should not have been in stacktrace", "stacktrace: %+v", stack)
							}
						}
						assert.True(t, foundFunc1, "helperFunc1 should have been in stacktrace but wasn't")
					})
				})
			})
		})
	})
}

func helperFunc1(action func()) {
	action()
}

func helperFunc2(action func()) {
	action()
}

func TestAssertionFailureStripsTestifyTrace(t *testing.T) {
	original := "\n\tError Trace:\tfoo_test.go:10\n\tError:      \tNot equal:\n\t            \texpected: 1"
	stack := []StacktraceInfo{{FileName: "x.go", Package: "p", Function: "F", Line: 3}}

	err := assertionFailure(original, stack)
	var es ErrorWithStacktrace
	require.True(t, errors.As(err, &es))
	assert.Equal(t, "Not equal:\nexpected: 1", es.Message)
	assert.Equal(t, stack, es.Stacktrace)

	plain := assertionFailure("simple", nil)
	assert.Equal(t, "simple", plain.Error())
	assert.False(t, errors.As(plain, &es))
}

func TestSplitFuncName(t *testing.T) {
	p, f := splitFuncName("github.com/a/b/c.(*T).Method")
	assert.Equal(t, "github.com/a/b/c", p)
	assert.Equal(t, "(*T).Method", f)

	p, f = splitFuncName("github.com/a/b/c.F.func1")
	assert.Equal(t, "github.com/a/b/c", p)
	assert.Equal(t, "F.func1", f)

	p, f = splitFuncName("main")
	assert.Equal(t, "main", p)
	assert.Equal(t, "", f)
}

func TestStacktraceInfoTrimsModuleRoot(t *testing.T) {
	s := StacktraceInfo{FileName: "a.go", Package: moduleRoot() + "/suites", Function: "F", Line: 2}
	assert.Equal(t, "suites.F (a.go:2)", s.String())
	assert.Equal(t, "github.com/launchdarkly/suite-runner", moduleRoot())
}

func TestDeclarationErrorMessage(t *testing.T) {
	err := &DeclarationError{Problems: []DeclarationProblem{
		{Message: `case "x" declared outside any suite`},
		{Path: Path{"a", "b"}, Message: "afterEach hook has no action"},
	}}
	assert.Equal(t,
		`malformed suite declaration: case "x" declared outside any suite; [a/b]: afterEach hook has no action`,
		err.Error())
	assert.True(t, IsDeclarationError(err))
	assert.False(t, IsDeclarationError(errors.New("other")))
}
