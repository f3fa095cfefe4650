// Package fetch retrieves artifact bytes over HTTP. Every failure mode
// (transport error, non-2xx status, timeout) is a plain error: callers treat
// them alike and skip the artifact for this run.
package fetch
