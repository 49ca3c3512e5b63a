package heap

// tableMaxLoad is the maximum load factor before a Table grows.
const tableMaxLoad = 0.75

// tableInitialCapacity is the smallest capacity a non-empty Table grows
// into; capacity doubles from there on each subsequent grow.
const tableInitialCapacity = 8

// entry is one slot of a Table. An empty slot has a nil key and a Nil
// value; a tombstone (a deleted slot still counted toward load to keep
// probe chains correct) has a nil key and a Bool(true) value.
type entry struct {
	key   *String
	value Value
}

func (e entry) isEmpty() bool     { return e.key == nil && e.value.IsNil() }
func (e entry) isTombstone() bool { return e.key == nil && !e.value.IsNil() }

// Table is an open-addressed, linear-probing hash table keyed by
// interned strings. It backs globals, class method tables, and
// instance field tables; grounded on original_source/table.c,
// generalized from a key-only-string-table holding doubles to one
// holding the language's full tagged Value.
type Table struct {
	count    int
	entries  []entry
}

// Get looks up key, returning the stored value and whether it was found.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Set inserts or overwrites key's value, returning true if this created a
// brand new key (as opposed to overwriting one already present).
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}

	idx := t.findIndex(t.entries, key)
	dst := &t.entries[idx]
	isNewKey := dst.key == nil
	if isNewKey && dst.value.IsNil() {
		// A brand new slot, as opposed to reusing a tombstone, grows the
		// table's logical count; reusing a tombstone does not, since the
		// tombstone itself already counted toward count when it was
		// inserted (see Delete).
		t.count++
	}

	dst.key = key
	dst.value = value
	return isNewKey
}

// Delete removes key, leaving a tombstone so later probes for other keys
// that collided with it keep working. Returns whether key was present.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx := t.findIndex(t.entries, key)
	dst := &t.entries[idx]
	if dst.key == nil {
		return false
	}
	dst.key = nil
	dst.value = Bool(true)
	return true
}

// Len returns the number of live (non-tombstone) entries.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

// Range calls fn for every live entry. Safe to use for GC marking; not
// safe to mutate the table from within fn.
func (t *Table) Range(fn func(key *String, value Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// RemoveWeak deletes every live entry for which keep returns false. Used
// by the collector to drop unmarked strings from the intern table before
// they are swept, since the intern table holds its strings weakly.
func (t *Table) RemoveWeak(keep func(key *String) bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !keep(e.key) {
			e.key = nil
			e.value = Bool(true)
		}
	}
}

// findEntry returns the entry a lookup for key lands on: either the live
// entry with a matching key, or, when key is absent, the slot an
// insertion would use (the first tombstone passed on the way, else the
// empty slot where probing stopped). Either absent case has a nil key.
func (t *Table) findEntry(entries []entry, key *String) entry {
	idx := t.findIndex(entries, key)
	return entries[idx]
}

// findIndex implements the linear-probing search shared by Get/Set/Delete:
// scan from key.Hash % capacity, skipping tombstones but remembering the
// first one seen so an insertion can reuse it, stopping at the key itself
// or a truly empty slot.
func (t *Table) findIndex(entries []entry, key *String) int {
	capacity := len(entries)
	index := int(key.Hash % uint32(capacity))
	tombstone := -1

	for {
		e := entries[index]
		switch {
		case e.isEmpty():
			if tombstone != -1 {
				return tombstone
			}
			return index
		case e.isTombstone():
			if tombstone == -1 {
				tombstone = index
			}
		case e.key == key:
			return index
		}
		index = (index + 1) % capacity
	}
}

// FindString looks up a string by content and hash rather than by an
// already-interned key pointer, which is exactly the chicken-and-egg
// problem interning has to solve: before allocating a new String object
// we need to know whether its content already exists. Grounded on
// original_source/table.c's tableFindString.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := int(hash % uint32(capacity))
	for {
		e := t.entries[index]
		switch {
		case e.isEmpty():
			return nil
		case e.key != nil && e.key.Hash == hash && e.key.Chars == chars:
			return e.key
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) grow() {
	newCap := tableInitialCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	newEntries := make([]entry, newCap)

	// Rebuilding count from scratch drops tombstones, since a freshly
	// grown table has none; only live entries are rehashed in.
	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		idx := t.findIndex(newEntries, e.key)
		newEntries[idx] = e
		t.count++
	}
	t.entries = newEntries
}
