// Package framework contains the low-level pieces shared by the suite runner: the Logger
// abstraction and the capturing logger that records output for each test scope. The
// lifecycle engine itself is in the lifecycle subpackage, and the assertion API is in matchers.
//
// The general model is:
//
// 1. Suites and cases are declared ahead of time with lifecycle.Builder, producing a tree.
//
// 2. lifecycle.Run walks the tree, running hooks and case bodies one at a time, each in its
// own test scope (lifecycle.T) which accumulates failures and debug output.
//
// 3. Everything the runner observes is reported as it happens to a lifecycle.Reporter, and
// the final lifecycle.Report is returned to the caller.
package framework
