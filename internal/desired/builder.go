package desired

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/scriptmirror/scriptmirror/internal/fetch"
	"github.com/scriptmirror/scriptmirror/internal/manifest"
)

// Skip reasons.
const (
	ReasonMissingIdentity = "missing identity"
	ReasonMissingSource   = "missing source"
	ReasonBadIdentity     = "identity must be a plain, non-hidden file name"
	ReasonExcluded        = "excluded extension"
)

// Build derives the desired set from manifest entries. It returns an error
// only when opts itself is unusable.
func Build(entries []manifest.Entry, opts Options) (*Plan, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	excluded := extensionSet(opts.ExcludeExtensions)
	plan := &Plan{}
	var targets []Target

	for i, entry := range entries {
		identity := strings.TrimSpace(entry.Identity)
		source := strings.TrimSpace(entry.Source)

		skip := Skip{Index: i, Identity: identity, Source: source}
		switch {
		case identity == "":
			skip.Reason = ReasonMissingIdentity
		case source == "":
			skip.Reason = ReasonMissingSource
		case !plainName(identity):
			skip.Reason = ReasonBadIdentity
		case excluded[sourceExt(source)]:
			skip.Reason = ReasonExcluded
		}
		if skip.Reason != "" {
			plan.Skipped = append(plan.Skipped, skip)
			continue
		}

		resolved := Resolve(opts.BaseURL, source)
		spec := ArtifactSpec{Identity: identity}
		for _, v := range opts.Variants {
			desc := fetch.Descriptor{
				URL:     resolved,
				Headers: copyHeaders(entry.Headers),
			}
			if opts.ServiceAddress != "" {
				desc.URL = ServiceURL(opts.ServiceAddress, resolved, identity, v.Tag)
			}
			spec.Sources = append(spec.Sources, Source{Variant: v, Descriptor: desc})
			targets = append(targets, Target{
				Identity:   identity,
				Variant:    v.Tag,
				Path:       OutputPath(opts.OutputRoot, v.Tag, identity, v.Suffix),
				Descriptor: desc,
			})
		}
		plan.Specs = append(plan.Specs, spec)
	}

	plan.Set = NewSet(targets)
	return plan, nil
}

func (o Options) validate() error {
	if o.OutputRoot == "" {
		return errors.New("output root is required")
	}
	if len(o.Variants) == 0 {
		return errors.New("at least one variant is required")
	}
	seen := make(map[string]bool, len(o.Variants))
	for _, v := range o.Variants {
		if v.Tag == "" || !plainName(v.Tag) {
			return fmt.Errorf("invalid variant tag %q", v.Tag)
		}
		if seen[v.Tag] {
			return fmt.Errorf("duplicate variant tag %q", v.Tag)
		}
		seen[v.Tag] = true
	}
	return nil
}

// Resolve prefixes a relative source with base. Absolute URLs, and any
// source when base is empty, are returned unchanged; a source that still
// cannot be fetched surfaces later as a fetch error.
func Resolve(base, source string) string {
	if base == "" {
		return source
	}
	if u, err := url.Parse(source); err == nil && u.IsAbs() {
		return source
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(source, "/")
}

// ServiceURL builds a conversion-service URL for one variant. Addresses may
// carry {source}, {target} and {identity} placeholders. A bare address is
// treated as a Script-Hub style base: <address>/file/<target>/<source>, with
// the source query-escaped.
func ServiceURL(address, source, identity, target string) string {
	if strings.Contains(address, "{") {
		return strings.NewReplacer(
			"{source}", url.QueryEscape(source),
			"{target}", url.QueryEscape(target),
			"{identity}", url.PathEscape(identity),
		).Replace(address)
	}
	return strings.TrimRight(address, "/") + "/file/" + url.PathEscape(target) + "/" + url.QueryEscape(source)
}

// sourceExt returns the lower-cased extension of the source's path
// component, ignoring query strings and fragments.
func sourceExt(source string) string {
	p := source
	if u, err := url.Parse(source); err == nil {
		p = u.Path
	}
	return strings.ToLower(path.Ext(p))
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

// plainName rejects names that would escape or nest inside the output root,
// and hidden names, which cleanup never visits.
func plainName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func copyHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
