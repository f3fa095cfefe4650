// Package manifest loads the artifact list that drives a sync run. A manifest
// is an ordered sequence of {identity, source, headers} entries written as
// JSON, YAML or TOML. The top-level shape is validated against an embedded
// JSON schema; entry-level gaps (a missing identity or source) are left for
// the desired-state builder to skip.
package manifest
