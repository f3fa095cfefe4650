// Package watch repeats a sync cycle on a fixed interval and when watched
// files change. Cycles never overlap; triggers that arrive while a cycle is
// running collapse into a single follow-up cycle.
package watch
