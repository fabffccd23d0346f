package ngram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/natefinch/atomic"
)

// Table is an order-n frequency table. For every (n-1)-id context observed
// in the corpus it records how often each id followed it. Every count equals
// the number of times that transition was observed across all sequences
// folded into the table so far; counts are never negative.
type Table struct {
	Order  int                    `json:"order"`
	Counts map[string]map[int]int `json:"counts"`
}

// NewTable creates an empty frequency table for the given order.
func NewTable(order int) *Table {
	return &Table{Order: order, Counts: make(map[string]map[int]int)}
}

// ContextKey builds the canonical key for a context prefix: the space-joined
// decimal form of its ids. The empty prefix (order 1) yields the empty key.
func ContextKey(context []int) string {
	var keyBuf []byte
	for i, id := range context {
		if i > 0 {
			keyBuf = append(keyBuf, ' ')
		}
		keyBuf = strconv.AppendInt(keyBuf, int64(id), 10)
	}
	return string(keyBuf)
}

// Train folds one encoded sequence into the table: for every position i with
// i >= order-1 the transition (sequence[i-order+1:i] -> sequence[i]) is
// counted once. Sequences shorter than the order contribute nothing.
func (t *Table) Train(sequence []int) {
	for i := t.Order - 1; i < len(sequence); i++ {
		key := ContextKey(sequence[i-t.Order+1 : i])
		row := t.Counts[key]
		if row == nil {
			row = make(map[int]int)
			t.Counts[key] = row
		}
		row[sequence[i]]++
	}
}

// NextCounts returns the next-id counts recorded for a context, or nil if the
// context was never observed.
func (t *Table) NextCounts(context []int) map[int]int {
	return t.Counts[ContextKey(context)]
}

// Observations returns the total number of transitions folded into the table.
func (t *Table) Observations() int {
	var total int
	for _, row := range t.Counts {
		for _, count := range row {
			total += count
		}
	}
	return total
}

// sumCounts unions two count maps, adding counts where keys collide. Either
// operand may be nil; neither is mutated.
func sumCounts[K comparable](a, b map[K]int) map[K]int {
	combined := make(map[K]int, len(a)+len(b))
	for k, count := range a {
		combined[k] = count
	}
	for k, count := range b {
		combined[k] += count
	}
	return combined
}

// Merge combines two tables into a new one: for every context present in
// either operand, and every next-id present in either operand's row, the
// combined count is the sum of both counts. Neither operand is mutated.
//
// Merge is associative and commutative, which makes the final model invariant
// under sharding and merge pairing order. It is not idempotent: merging a
// table with itself doubles every count, so each partial must be folded into
// a final table exactly once.
func Merge(a, b *Table) (*Table, error) {
	if a.Order != b.Order {
		return nil, fmt.Errorf("cannot merge order %d into order %d: %w", b.Order, a.Order, ErrOrderMismatch)
	}

	combined := NewTable(a.Order)
	for key, row := range a.Counts {
		combined.Counts[key] = sumCounts(row, b.Counts[key])
	}
	for key, row := range b.Counts {
		if _, ok := a.Counts[key]; !ok {
			combined.Counts[key] = sumCounts(row, nil)
		}
	}
	return combined, nil
}

// Equal reports full content equality: same order, same contexts, and the
// same count for every (context, next) transition.
func (t *Table) Equal(other *Table) bool {
	if t.Order != other.Order || len(t.Counts) != len(other.Counts) {
		return false
	}
	for key, row := range t.Counts {
		otherRow, ok := other.Counts[key]
		if !ok || len(row) != len(otherRow) {
			return false
		}
		for id, count := range row {
			if otherRow[id] != count {
				return false
			}
		}
	}
	return true
}

// Export writes the table as JSON to the provided io.Writer. Two tables with
// equal contents decode equal regardless of the insertion order used to build
// them, since the representation is keyed, not positional.
func (t *Table) Export(w io.Writer) error {
	return json.NewEncoder(w).Encode(t)
}

// ImportTable reads a JSON table representation from an io.Reader. It rejects
// tables with a non-positive order or negative counts as corrupt.
func ImportTable(r io.Reader) (*Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode json table: %w", err)
	}
	if t.Order < 1 {
		return nil, fmt.Errorf("decoded table has invalid order %d", t.Order)
	}
	if t.Counts == nil {
		t.Counts = make(map[string]map[int]int)
	}
	for key, row := range t.Counts {
		for id, count := range row {
			if count < 0 {
				return nil, fmt.Errorf("decoded table has negative count %d for (%q -> %d)", count, key, id)
			}
		}
	}
	return &t, nil
}

// Save persists the table to path. The write is atomic so a crash never
// leaves a truncated artifact behind.
func (t *Table) Save(path string) error {
	var buf bytes.Buffer
	if err := t.Export(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("could not write table to %s: %w", path, err)
	}
	return nil
}

// LoadTable loads a table persisted by Save. Save and Load are round-trip
// exact under Equal.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open table %s: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	t, err := ImportTable(f)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}
	return t, nil
}
