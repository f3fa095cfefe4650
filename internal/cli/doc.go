// Package cli defines the Cobra command tree for the scriptmirror CLI. Each
// file in this package registers one top-level command (sync, plan, validate,
// etc.) with the root command. Command implementations delegate to internal
// packages for the mirroring logic and only handle settings, flags and output.
package cli
