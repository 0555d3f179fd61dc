package stock

import "sync"

// Table holds the current working set for one dataset: the normalized records
// last loaded, replaced wholesale on every successful load. A failed load
// records its error and leaves the previous records untouched. Table is the
// single mutable owner of the record slice; readers get snapshots and all
// filter/sort passes run on those.
type Table struct {
	mu      sync.RWMutex
	records []Record
	loadErr string
}

func NewTable() *Table {
	return &Table{}
}

// Replace installs a freshly loaded record set and clears any load error.
func (t *Table) Replace(records []Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = records
	t.loadErr = ""
}

// SetError records a failed load without touching the previous records.
func (t *Table) SetError(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadErr = msg
}

// Snapshot returns the current records. The returned slice must not be
// modified; ApplyView copies before sorting.
func (t *Table) Snapshot() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.records
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Err returns the message of the last failed load, or "" after a successful
// one.
func (t *Table) Err() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadErr
}

// Tables is a registry of per-dataset tables, created on first use.
type Tables struct {
	mu     sync.Mutex
	tables map[string]*Table
}

func NewTables() *Tables {
	return &Tables{tables: make(map[string]*Table)}
}

// Get returns the table for a dataset, creating it if needed.
func (ts *Tables) Get(dataset string) *Table {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.tables[dataset]
	if !ok {
		t = NewTable()
		ts.tables[dataset] = t
	}
	return t
}
