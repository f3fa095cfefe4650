// Package vcs records mirror changes in git. Git shells out to the git
// binary in the repository directory; DryRun only logs what would happen.
// Both satisfy ledger.Versioner.
package vcs
