// Package internal contains helpers for the lifecycle package's own tests. They live in a
// separate package so that their frames are not filtered out of stacktraces as runner code.
package internal

// CallOutside calls action from a frame that does not belong to the lifecycle package.
func CallOutside(action func()) {
	action()
}
