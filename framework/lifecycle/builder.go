package lifecycle

import "fmt"

// Builder declares a tree of suites. It replaces mocha's ambient describe/it/before functions
// with an explicit object: Describe opens a suite for the duration of its callback, and cases
// and hooks are attached to whichever suite is open at the time.
//
//	b := lifecycle.NewBuilder()
//	b.Describe("widget", func(b *lifecycle.Builder) {
//	    b.BeforeEach(func(t *lifecycle.T) { ... })
//	    b.It("spins", func(t *lifecycle.T) { ... })
//	    b.Pending("wobbles")
//	})
//	roots, err := b.Build()
//
// Declaring a case or hook when no suite is open is a programming error; it is remembered and
// reported by Build, so that nothing runs from a malformed declaration.
type Builder struct {
	roots    []*Suite
	open     []*Suite
	problems []DeclarationProblem
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Describe declares a suite and calls fn to declare its contents. Suites may be nested by
// calling Describe again from within fn.
func (b *Builder) Describe(name string, fn func(*Builder)) {
	s := &Suite{Name: name}
	if current := b.current(); current != nil {
		current.Children = append(current.Children, s)
	} else {
		b.roots = append(b.roots, s)
	}
	b.open = append(b.open, s)
	defer func() { b.open = b.open[:len(b.open)-1] }()
	if fn != nil {
		fn(b)
	}
}

// Context is a synonym for Describe.
func (b *Builder) Context(name string, fn func(*Builder)) {
	b.Describe(name, fn)
}

// It declares a case whose body is fn.
func (b *Builder) It(name string, fn func(*T)) {
	b.Case(name, Some(Sync(fn)))
}

// ItAsync declares a case that is finished when fn calls its Done callback.
func (b *Builder) ItAsync(name string, fn func(*T, Done)) {
	b.Case(name, Some(Async(fn)))
}

// Pending declares a case with no body.
func (b *Builder) Pending(name string) {
	b.Case(name, None())
}

// Case declares a case with an explicit Body.
func (b *Builder) Case(name string, body Body) {
	current := b.current()
	if current == nil {
		b.problem(fmt.Sprintf("case %q declared outside any suite", name))
		return
	}
	current.Children = append(current.Children, &Case{Name: name, Body: body})
}

// Before declares a hook that runs once before the cases of the current suite.
func (b *Builder) Before(fn func(*T)) { b.Hook(BeforeAll, Sync(fn)) }

// After declares a hook that runs once after the cases of the current suite.
func (b *Builder) After(fn func(*T)) { b.Hook(AfterAll, Sync(fn)) }

// BeforeEach declares a hook that runs before every case in the current suite and its
// nested suites.
func (b *Builder) BeforeEach(fn func(*T)) { b.Hook(BeforeEach, Sync(fn)) }

// AfterEach declares a hook that runs after every case in the current suite and its
// nested suites.
func (b *Builder) AfterEach(fn func(*T)) { b.Hook(AfterEach, Sync(fn)) }

// Hook attaches a hook of any kind to the current suite.
func (b *Builder) Hook(kind HookKind, action Action) {
	current := b.current()
	switch {
	case current == nil:
		b.problem(fmt.Sprintf("%s hook declared outside any suite", kind))
	case !kind.valid():
		b.problem(fmt.Sprintf("hook of unknown kind %s", kind))
	case !action.IsDefined():
		b.problem(fmt.Sprintf("%s hook has no action", kind))
	default:
		current.Hooks = append(current.Hooks, Hook{Kind: kind, Action: action})
	}
}

// Build returns the declared top-level suites, or a *DeclarationError if anything was
// declared incorrectly.
func (b *Builder) Build() ([]*Suite, error) {
	if len(b.problems) != 0 {
		return nil, &DeclarationError{Problems: append([]DeclarationProblem(nil), b.problems...)}
	}
	return append([]*Suite(nil), b.roots...), nil
}

func (b *Builder) current() *Suite {
	if len(b.open) == 0 {
		return nil
	}
	return b.open[len(b.open)-1]
}

func (b *Builder) openPath() Path {
	var p Path
	for _, s := range b.open {
		p = p.Plus(s.Name)
	}
	return p
}

func (b *Builder) problem(message string) {
	b.problems = append(b.problems, DeclarationProblem{Path: b.openPath(), Message: message})
}
