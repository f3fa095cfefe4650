// Package notify sends the post-run summary to push channels. It runs after
// the ledger is published, receives the run's immutable result, and never
// influences the exit status: every channel failure is logged and dropped.
package notify
