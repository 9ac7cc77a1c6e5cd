package object

// tableMaxLoad is the load factor above which the table doubles its
// capacity, per spec.md 4.5 ("load factor ≤ 0.75 triggers doubling").
const tableMaxLoad = 0.75

// tableInitCapacity is the capacity a Table grows to on its first insert,
// per spec.md 4.5 ("initial capacity 8").
const tableInitCapacity = 8

type tableEntry struct {
	key   *ObjString
	value Value
}

// Table is an open-addressed hash table with linear probing, keyed by
// interned-String pointer identity. A deleted entry is represented by a
// tombstone (key == nil, value == True) so that linear probing continues
// past it; an entry that was never occupied has key == nil, value == Nil.
//
// Table backs both the string-interning set and, in package machine, the
// table of global variables. The zero value is an empty, usable Table.
type Table struct {
	entries []tableEntry
	count   int // live entries plus tombstones
}

// Len returns the number of live (non-tombstone) entries. It is O(capacity)
// and is intended for tests and diagnostics, not hot paths.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

// Get returns the value associated with key, if present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return nil, false
	}
	return e.value, true
}

// Set inserts or updates key with value. It returns true iff the key was not
// already present (a fresh insert), matching spec.md 4.5 ("set(key, value)
// returns true iff the key is newly inserted").
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}

	e := t.findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && e.value == Nil {
		// A genuinely empty slot, not a reused tombstone: only a truly new slot
		// grows the live+tombstone count.
		t.count++
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key from the table, replacing its slot with a tombstone. It
// returns whether the key was present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True // tombstone marker
	return true
}

// FindString looks up an interned string by content rather than by pointer,
// for use by the string-interning path: it returns the existing ObjString
// with the given bytes and hash, or nil if none is interned yet. Table
// entries other than the interning set never call this method.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		switch {
		case e.key == nil:
			if e.value == Nil {
				// Truly empty slot: the string is not interned.
				return nil
			}
			// Tombstone: keep probing.
		case e.key.Hash == hash && e.key.Chars == chars:
			return e.key
		}
		index = (index + 1) & mask
	}
}

// findEntry returns the slot where key is stored, or where it should be
// inserted: the first tombstone seen, or the first truly empty slot if no
// tombstone was passed first.
func (t *Table) findEntry(entries []tableEntry, key *ObjString) *tableEntry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *tableEntry
	for {
		e := &entries[index]
		switch {
		case e.key == nil:
			if e.value == Nil {
				// Truly empty slot.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			// Tombstone.
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) grow() {
	newCap := tableInitCapacity
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	newEntries := make([]tableEntry, newCap)
	for i := range newEntries {
		newEntries[i].value = Nil
	}

	// Rehash: only live entries are carried over, tombstones are dropped, so
	// count is recomputed from scratch.
	count := 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.key)
		dst.key = e.key
		dst.value = e.value
		count++
	}

	t.entries = newEntries
	t.count = count
}
