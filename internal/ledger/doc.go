// Package ledger holds the ordered change records of a sync run and hands
// them to a versioning backend, one commit per record followed by a single
// publish.
package ledger
