// Package guard contains panics raised by codec calls and converts them
// into ordinary errors so a corrupt file cannot abort a whole batch.
package guard

import "fmt"

// PanicError is a recovered panic re-expressed as an error.
type PanicError struct {
	// Name identifies the call that panicked, e.g. "jpeg decode".
	Name string
	// Value is the recovered panic payload.
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Name, e.Value)
}

// Safely runs fn and converts any panic into a *PanicError. The partial
// state of the panicking call is discarded.
func Safely(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Name: name, Value: r}
		}
	}()
	return fn()
}
