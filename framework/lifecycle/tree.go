package lifecycle

import "fmt"

// HookKind identifies when a hook runs relative to the cases of its suite.
type HookKind int

const (
	// BeforeAll hooks run once when a suite is activated, before any of its cases.
	BeforeAll HookKind = iota + 1
	// AfterAll hooks run once after all of a suite's children have been visited.
	AfterAll
	// BeforeEach hooks run before every case in the suite and its descendant suites.
	BeforeEach
	// AfterEach hooks run after every case in the suite and its descendant suites.
	AfterEach
)

func (k HookKind) String() string {
	switch k {
	case BeforeAll:
		return "beforeAll"
	case AfterAll:
		return "afterAll"
	case BeforeEach:
		return "beforeEach"
	case AfterEach:
		return "afterEach"
	default:
		return fmt.Sprintf("HookKind(%d)", int(k))
	}
}

func (k HookKind) valid() bool {
	return k >= BeforeAll && k <= AfterEach
}

// Done signals completion of an asynchronous action. Passing a non-nil error fails the case
// or hook. Only the first call has any effect.
type Done func(err error)

// Action is something the runner can execute within a test scope: either a plain function
// that is finished when it returns, or an asynchronous function that is finished when it calls
// its Done callback.
type Action struct {
	sync  func(*T)
	async func(*T, Done)
}

// Sync returns an Action that is complete when fn returns.
func Sync(fn func(*T)) Action { return Action{sync: fn} }

// Async returns an Action that is complete when fn calls its Done callback. The runner waits
// for that signal, or for Configuration.Timeout, before moving on.
func Async(fn func(*T, Done)) Action { return Action{async: fn} }

// IsDefined returns true if there is a function to execute.
func (a Action) IsDefined() bool { return a.sync != nil || a.async != nil }

// Body is the optional executable part of a Case. A case without a body is pending.
type Body struct {
	defined bool
	action  Action
}

// Some returns a Body that executes action. If action is not defined, the Body is empty.
func Some(action Action) Body { return Body{defined: action.IsDefined(), action: action} }

// None returns an empty Body.
func None() Body { return Body{} }

// IsDefined returns true if the case has something to execute.
func (b Body) IsDefined() bool { return b.defined }

// Action returns the action to execute, or an undefined Action if the Body is empty.
func (b Body) Action() Action { return b.action }

// Node is a child of a Suite: either a *Suite or a *Case.
type Node interface {
	nodeName() string
}

// Suite is a named, ordered group of cases and nested suites, with the hooks attached to it.
type Suite struct {
	Name     string
	Children []Node
	Hooks    []Hook
}

// Case is a single named test. A Case whose Body is empty is reported as pending.
type Case struct {
	Name string
	Body Body
}

// Hook is a setup or teardown action attached to a Suite.
type Hook struct {
	Kind   HookKind
	Action Action
}

func (s *Suite) nodeName() string { return s.Name }
func (c *Case) nodeName() string  { return c.Name }

func (s *Suite) hooksOf(kind HookKind) []Hook {
	var ret []Hook
	for _, h := range s.Hooks {
		if h.Kind == kind {
			ret = append(ret, h)
		}
	}
	return ret
}

// walkCases calls fn for every case under s, depth-first in declaration order, along with the
// path of the case.
func (s *Suite) walkCases(path Path, fn func(*Case, Path)) {
	for _, child := range s.Children {
		switch c := child.(type) {
		case *Case:
			fn(c, path.Plus(c.Name))
		case *Suite:
			c.walkCases(path.Plus(c.Name), fn)
		}
	}
}

// CountCases returns the number of cases under s, including those in nested suites.
func (s *Suite) CountCases() int {
	n := 0
	s.walkCases(nil, func(*Case, Path) { n++ })
	return n
}

// validateTree checks the structural rules that declaration through a Builder guarantees, for
// trees that were assembled by hand.
func validateTree(roots []*Suite) error {
	var problems []DeclarationProblem
	seen := make(map[*Suite]bool)
	var visit func(s *Suite, path Path)
	visit = func(s *Suite, path Path) {
		if seen[s] {
			problems = append(problems, DeclarationProblem{Path: path,
				Message: "suite appears more than once in the tree"})
			return
		}
		seen[s] = true
		if s.Name == "" {
			problems = append(problems, DeclarationProblem{Path: path, Message: "suite has no name"})
		}
		for i, h := range s.Hooks {
			switch {
			case !h.Kind.valid():
				problems = append(problems, DeclarationProblem{Path: path,
					Message: fmt.Sprintf("hook #%d has unknown kind %s", i+1, h.Kind)})
			case !h.Action.IsDefined():
				problems = append(problems, DeclarationProblem{Path: path,
					Message: fmt.Sprintf("%s hook #%d has no action", h.Kind, i+1)})
			}
		}
		for i, child := range s.Children {
			switch c := child.(type) {
			case *Suite:
				if c == nil {
					problems = append(problems, DeclarationProblem{Path: path,
						Message: fmt.Sprintf("child #%d is a nil suite", i+1)})
					continue
				}
				visit(c, path.Plus(c.Name))
			case *Case:
				switch {
				case c == nil:
					problems = append(problems, DeclarationProblem{Path: path,
						Message: fmt.Sprintf("child #%d is a nil case", i+1)})
				case c.Name == "":
					problems = append(problems, DeclarationProblem{Path: path,
						Message: fmt.Sprintf("child #%d is a case with no name", i+1)})
				}
			default:
				problems = append(problems, DeclarationProblem{Path: path,
					Message: fmt.Sprintf("child #%d is not attached to any node", i+1)})
			}
		}
	}
	for i, s := range roots {
		if s == nil {
			problems = append(problems, DeclarationProblem{
				Message: fmt.Sprintf("top-level suite #%d is nil", i+1)})
			continue
		}
		visit(s, Path{s.Name})
	}
	if len(problems) != 0 {
		return &DeclarationError{Problems: problems}
	}
	return nil
}
