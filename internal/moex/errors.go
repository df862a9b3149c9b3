package moex

import "fmt"

// InvalidArgumentError reports malformed input at a public boundary: an empty
// identity, an unsupported currency, language, range or measure, or a date
// that could not be parsed.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// EmptyResultError reports a well-formed response that contained zero rows
// where at least one was required: an unknown entity id, or an entity with no
// current data.
type EmptyResultError struct {
	What string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no available data: %s", e.What)
}

// UnknownPropertyError reports a virtual property that resolved through none
// of the lookup steps.
type UnknownPropertyError struct {
	Entity   string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("property %q does not exist", e.Property)
	}
	return fmt.Sprintf("property %q does not exist on %s", e.Property, e.Entity)
}
