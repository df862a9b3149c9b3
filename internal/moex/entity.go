package moex

import (
	"strings"

	"github.com/avolkov/moex-iss-data/internal/tabular"
)

// entry is the shared core of every entity: an immutable id plus a bag of
// lower-cased properties populated wholesale on first load. An entry with no
// properties is unloaded.
type entry struct {
	id    string
	props tabular.Record
}

// ID returns the entity's natural identifier.
func (e *entry) ID() string {
	return e.id
}

func (e *entry) loadedProps() bool {
	return len(e.props) > 0
}

// setProperties replaces the whole property set, lower-casing every key.
func (e *entry) setProperties(rec tabular.Record) {
	e.props = rec.Lowered()
}

// setProperty stores a single property under its lower-cased name.
func (e *entry) setProperty(name string, value any) {
	if e.props == nil {
		e.props = make(tabular.Record)
	}
	e.props[strings.ToLower(name)] = value
}

// Property returns a loaded property. Names are matched lower-cased.
func (e *entry) Property(name string) (any, bool) {
	v, ok := e.props[strings.ToLower(name)]
	return v, ok
}

// PropertyString renders a loaded property as a string; missing properties
// and nulls yield the empty string.
func (e *entry) PropertyString(name string) string {
	return e.props.String(strings.ToLower(name))
}

// Properties exposes the loaded property set. The caller must not mutate it.
func (e *entry) Properties() tabular.Record {
	return e.props
}

// propertyFromGetter maps a getter-style accessor name to the property it
// reads: "getLastPrice" becomes "lastprice". Names without the prefix do not
// resolve.
func propertyFromGetter(name string) (string, bool) {
	if !strings.HasPrefix(name, "get") || len(name) == len("get") {
		return "", false
	}
	return strings.ToLower(name[len("get"):]), true
}
