// Package desired turns manifest entries into the desired set of a sync run:
// one output path per (entry × variant), each carrying the fetch descriptor
// that produces its bytes. Building is a pure transform; entries that cannot
// produce output are reported as skips rather than errors.
package desired
