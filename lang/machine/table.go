package machine

import "github.com/dolthub/swiss"

// Table is the open-addressed, string-keyed hash table described by spec §2
// component #3. It backs the globals table, class method tables, and
// instance field tables. The underlying implementation is
// github.com/dolthub/swiss's SwissTable map, the same open-addressing
// algorithm the spec calls for, not a hand-rolled substitute.
type Table struct {
	m *swiss.Map[string, Value]
}

// NewTable returns a table with initial capacity for at least size entries.
func NewTable(size int) *Table {
	size = clampMin(size, 8)
	return &Table{m: swiss.NewMap[string, Value](uint32(size))}
}

func (t *Table) Get(key string) (Value, bool) {
	return t.m.Get(key)
}

func (t *Table) Set(key string, v Value) {
	t.m.Put(key, v)
}

func (t *Table) Delete(key string) bool {
	return t.m.Delete(key)
}

func (t *Table) Len() int { return t.m.Count() }

// Each calls fn for every entry in the table. fn must not mutate the table.
func (t *Table) Each(fn func(key string, v Value)) {
	t.m.Iter(func(k string, v Value) bool {
		fn(k, v)
		return false
	})
}

// mark marks every value reachable from the table. Keys are plain Go
// strings holding the content of an interned string, not StringObj
// handles, so there is no key object to mark here; a StringObj with the
// same content stays alive only if something else marks it (for example
// the constant that produced the key).
func (t *Table) mark(gc *GC) {
	t.m.Iter(func(_ string, v Value) bool {
		gc.markValue(v)
		return false
	})
}
