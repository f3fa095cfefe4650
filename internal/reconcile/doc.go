// Package reconcile converges an output directory onto a desired set.
//
// Each target is fetched into a staging file beside its final path, compared
// by SHA-256 with any existing content, and promoted with an atomic rename
// only when the bytes differ. Targets are processed one at a time in desired
// order; a failed fetch skips its target and never aborts the run. With
// clean mode on, files under the root that no successful target accounted
// for are deleted afterwards.
//
// Cleanup compares against the paths that succeeded in this run, so an
// artifact whose every fetch failed has its existing outputs removed.
package reconcile
