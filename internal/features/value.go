package features

import "encoding/json"

// Value is an optional indicator value. The zero Value is absent.
type Value struct {
	v  float64
	ok bool
}

// Some returns a present value.
func Some(v float64) Value {
	return Value{v: v, ok: true}
}

// None returns an absent value.
func None() Value {
	return Value{}
}

// Get returns the number and whether it is present.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// Present reports whether the value holds a number.
func (v Value) Present() bool {
	return v.ok
}

// MarshalJSON encodes an absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = None()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Values maps logical feature names to optional values.
type Values map[string]Value

// Missing returns the names in order whose value is absent or not in the map.
func (vs Values) Missing(order []string) []string {
	var missing []string
	for _, name := range order {
		if !vs[name].Present() {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete reports whether every name in order has a value.
func (vs Values) Complete(order []string) bool {
	return len(vs.Missing(order)) == 0
}
