package suites

import (
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
	"github.com/launchdarkly/suite-runner/framework/matchers"
)

// Tutorial declares a suite that shows the order hooks run in, along with one failing, one
// passing and two pending cases. Its failure is intentional.
func Tutorial(b *lifecycle.Builder) {
	b.Describe("file to be tested", func(b *lifecycle.Builder) {
		b.Context("function to be tested", func(b *lifecycle.Builder) {
			b.Before(func(t *lifecycle.T) {
				t.Debug("======before")
			})

			b.After(func(t *lifecycle.T) {
				t.Debug("======after")
			})

			b.BeforeEach(func(t *lifecycle.T) {
				t.Debug("--------beforeEach")
			})

			b.AfterEach(func(t *lifecycle.T) {
				t.Debug("--------afterEach")
			})

			b.It("should do something", func(t *lifecycle.T) {
				matchers.AssertThat(t, 1, matchers.StrictEqual(2))
			})

			b.It("should do something else", func(t *lifecycle.T) {
				matchers.AssertThat(t, map[string]string{"name": "joe"},
					matchers.Equal(map[string]string{"name": "joe"}))
			})

			b.Pending("this is a pending test")
		})

		b.Context("function to be tested", func(b *lifecycle.Builder) {
			b.Pending("should do something")
		})
	})
}
