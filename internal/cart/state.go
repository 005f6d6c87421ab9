// Package cart owns the canonical in-memory cart state for this context:
// a mapping from product id to size key to quantity, plus the validated
// mutation operations and derived metrics over it.
package cart

import (
	"encoding/json"
	"math"

	serrors "github.com/benyxel/shopsync/internal/errors"
	"github.com/benyxel/shopsync/internal/storage"
)

// DefaultSize is the sentinel size key for products without a variant
// dimension.
const DefaultSize = "default"

// State maps productID -> sizeKey -> quantity. Invariants: every quantity is
// a positive integer; a size entry at zero is removed; a product with no
// size entries is removed.
type State map[string]map[string]int

// Clone returns a deep copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for id, sizes := range s {
		cp := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			cp[size] = qty
		}
		out[id] = cp
	}
	return out
}

// Equal reports deep structural equality. Nil and empty maps compare equal.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for id, sizes := range s {
		otherSizes, ok := other[id]
		if !ok || len(sizes) != len(otherSizes) {
			return false
		}
		for size, qty := range sizes {
			if otherSizes[size] != qty {
				return false
			}
		}
	}
	return true
}

// Lines counts distinct (product, size) entries.
func (s State) Lines() int {
	n := 0
	for _, sizes := range s {
		n += len(sizes)
	}
	return n
}

// DecodeState parses a persisted cart entry. The entry must be a JSON
// object of objects (never an array at the top level); anything else yields
// an empty state and a MalformedPersistedState error. Individual lines with
// non-positive or non-integer quantities are dropped rather than failing
// the whole entry.
func DecodeState(data []byte) (State, error) {
	var raw map[string]map[string]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return State{}, serrors.MalformedPersistedState(storage.KeyCart, err)
	}

	state := State{}
	for id, sizes := range raw {
		if id == "" || sizes == nil {
			continue
		}
		for size, num := range sizes {
			qty, ok := toPositiveInt(num)
			if !ok {
				continue
			}
			if state[id] == nil {
				state[id] = make(map[string]int, len(sizes))
			}
			state[id][size] = qty
		}
	}
	return state, nil
}

func toPositiveInt(num json.Number) (int, bool) {
	f, err := num.Float64()
	if err != nil {
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
