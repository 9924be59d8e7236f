package naming

import (
	"fmt"
)

// KeyMap is a bijective table between schema field names and wire keys for
// one schema. Reverse lookups go through the table, never through a
// convention inverse, so "address_2" survives a camelCase round trip.
type KeyMap struct {
	toWire   map[string]string
	toSchema map[string]string
	order    []string
}

// NewKeyMap builds the key map of a schema. It fails when two schema names
// collapse to the same wire key.
func NewKeyMap(names []string, conv Convention) (*KeyMap, error) {
	km := &KeyMap{
		toWire:   make(map[string]string, len(names)),
		toSchema: make(map[string]string, len(names)),
	}

	for _, name := range names {
		if _, dup := km.toWire[name]; dup {
			return nil, fmt.Errorf("duplicate field %q", name)
		}

		wire := conv(name)
		if prev, clash := km.toSchema[wire]; clash {
			return nil, fmt.Errorf("fields %q and %q both map to wire key %q", prev, name, wire)
		}

		km.toWire[name] = wire
		km.toSchema[wire] = name
		km.order = append(km.order, name)
	}

	return km, nil
}

// Wire returns the wire key of a schema field name.
func (km *KeyMap) Wire(name string) (string, bool) {
	w, ok := km.toWire[name]
	return w, ok
}

// Schema returns the schema field name of a wire key.
func (km *KeyMap) Schema(wire string) (string, bool) {
	n, ok := km.toSchema[wire]
	return n, ok
}

// Renamed reports whether any field changes name on the wire.
func (km *KeyMap) Renamed() bool {
	for name, wire := range km.toWire {
		if name != wire {
			return true
		}
	}

	return false
}

// Names returns the schema field names in declaration order.
func (km *KeyMap) Names() []string {
	return append([]string(nil), km.order...)
}

// Len returns the number of mapped fields.
func (km *KeyMap) Len() int {
	return len(km.order)
}
