// Package suites declares the example suites that the runner executes by default.
package suites

import (
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
)

// All declares every example suite, in the order they are reported.
func All(b *lifecycle.Builder) {
	UserModel(b)
	Tutorial(b)
}
