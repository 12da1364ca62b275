// Package lifecycle contains a suite runner in the style of mocha's BDD interface, run as
// regular Go application code rather than Go tests.
//
// Suites, cases and hooks are declared ahead of time with a Builder, producing a tree of
// *Suite values. Run walks that tree depth-first, one hook or case at a time: "before all"
// hooks once per suite, "before each"/"after each" hooks of the suite and all of its ancestors
// (outermost first, for both setup and teardown) around every case, then "after all" hooks.
// A failure anywhere is recorded in the Report and never stops the rest of the run; only a
// malformed tree is fatal.
package lifecycle
