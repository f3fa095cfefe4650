package ledger

import "path/filepath"

// Kind classifies a change applied to an output file.
type Kind int

const (
	Created Kind = iota + 1
	Updated
	Deleted
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Record is one applied change.
type Record struct {
	Path    string
	Kind    Kind
	Variant string
}

// Name returns the record's file name.
func (r Record) Name() string {
	return filepath.Base(r.Path)
}

// Ledger is an append-only sequence of records. The zero value is ready to use.
type Ledger struct {
	records []Record
}

// Append adds a record at the end of the ledger.
func (l *Ledger) Append(r Record) {
	l.records = append(l.records, r)
}

// Records returns the records in append order. The slice is a copy.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }
