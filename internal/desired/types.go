package desired

import (
	"path/filepath"

	"github.com/scriptmirror/scriptmirror/internal/fetch"
)

// Variant is one output form derived from a source, e.g. a target platform
// of a conversion service. Outputs land in <root>/<Tag>/<identity><Suffix>.
type Variant struct {
	Tag    string
	Suffix string
}

// Source pairs a variant with the descriptor that fetches it.
type Source struct {
	Variant    Variant
	Descriptor fetch.Descriptor
}

// ArtifactSpec is a surviving manifest entry with its per-variant sources.
type ArtifactSpec struct {
	Identity string
	Sources  []Source
}

// Target is a single desired output file.
type Target struct {
	Identity   string
	Variant    string
	Path       string
	Descriptor fetch.Descriptor
}

// Skip reports a manifest entry that produced no targets.
type Skip struct {
	Index    int
	Identity string
	Source   string
	Reason   string
}

// Options are the configuration tables the builder reads.
type Options struct {
	OutputRoot        string
	Variants          []Variant
	BaseURL           string
	ServiceAddress    string
	ExcludeExtensions []string
}

// Plan is the builder's output for one run.
type Plan struct {
	Set     *Set
	Specs   []ArtifactSpec
	Skipped []Skip
}

// OutputPath is the on-disk location of identity's output for a variant.
// Downstream tooling indexes mirrors by this layout.
func OutputPath(root, tag, identity, suffix string) string {
	return filepath.Join(root, tag, identity+suffix)
}
