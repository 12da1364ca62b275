// Package helpers holds small generic utilities shared by the runner's packages.
package helpers

// ConfigOption changes one aspect of a configuration struct of type T. A package declares its
// own option type as ConfigOption[ItsConfig] and accepts a variadic list of them.
type ConfigOption[T any] interface {
	Configure(*T) error
}

// ConfigOptionFunc adapts a plain function to ConfigOption.
type ConfigOptionFunc[T any] func(*T) error

func (f ConfigOptionFunc[T]) Configure(target *T) error { return f(target) }

// ApplyOptions runs each option against target in order, stopping at the first error.
//
// O is its own type parameter so that a named option type, such as reportstore.Option, can be
// passed as is.
func ApplyOptions[T any, O ConfigOption[T]](target *T, options ...O) error {
	for _, o := range options {
		if err := o.Configure(target); err != nil {
			return err
		}
	}
	return nil
}
