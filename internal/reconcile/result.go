package reconcile

import "github.com/scriptmirror/scriptmirror/internal/ledger"

// Status is the per-target outcome of a run.
type Status int

const (
	StatusCreated Status = iota + 1
	StatusUpdated
	StatusUnchanged
	StatusDeleted
	StatusFailed
)

// String returns the lower-case status name used in the run log.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	case StatusDeleted:
		return "deleted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one path.
type Outcome struct {
	Path     string
	Identity string
	Variant  string
	Status   Status
	Err      error
}

// Result is the immutable summary of one run.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Failed    int
	Ledger    []ledger.Record
	Outcomes  []Outcome
}

// Changed reports whether the run touched any file.
func (r *Result) Changed() bool {
	return len(r.Ledger) > 0
}

// resultBuilder accumulates a run before it is frozen into a Result.
type resultBuilder struct {
	res    Result
	ledger ledger.Ledger
}

func (b *resultBuilder) add(o Outcome) {
	b.res.Outcomes = append(b.res.Outcomes, o)
	switch o.Status {
	case StatusCreated:
		b.res.Created++
		b.ledger.Append(ledger.Record{Path: o.Path, Kind: ledger.Created, Variant: o.Variant})
	case StatusUpdated:
		b.res.Updated++
		b.ledger.Append(ledger.Record{Path: o.Path, Kind: ledger.Updated, Variant: o.Variant})
	case StatusDeleted:
		b.res.Deleted++
		b.ledger.Append(ledger.Record{Path: o.Path, Kind: ledger.Deleted, Variant: o.Variant})
	case StatusUnchanged:
		b.res.Unchanged++
	case StatusFailed:
		b.res.Failed++
	}
}

func (b *resultBuilder) freeze() *Result {
	res := b.res
	res.Ledger = b.ledger.Records()
	return &res
}
