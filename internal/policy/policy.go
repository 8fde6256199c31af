// Package policy implements the traversal-gating decisions attached to
// every request: whether a fetched representation should be reprocessed,
// whether a fetch should happen at all, and whether the result should be
// persisted.
package policy

import (
	"slices"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// Default is the standard policy: reprocess only when the processor
// version advances or the policy is explicitly forced, always fetch,
// always save. Named policies (e.g. a "discover-only" policy that fetches
// but never saves) are built by composing the same struct with different
// field values rather than via separate types, mirroring the teacher's
// single-struct config pattern.
type Default struct {
	Name         string
	Force        bool
	ExcludeTypes []string
	Fetch        bool
	Save         bool
}

// NewDefault returns the standard always-fetch, always-save policy.
func NewDefault() *Default {
	return &Default{Name: "default", Fetch: true, Save: true}
}

// ShouldProcess reports whether req needs (re)processing: true when no
// document is stored yet, when the stored document's processor version is
// behind the running processor, or when the request/policy forces it. A
// request for a type this policy excludes is never processed.
func (p *Default) ShouldProcess(req *types.Request, processorVersion int) bool {
	if slices.Contains(p.ExcludeTypes, req.Type) {
		return false
	}
	if p.Force || req.Context.Force {
		return true
	}
	if req.StoredVersion < 0 {
		return true
	}
	return req.StoredVersion != processorVersion
}

// ShouldFetch reports whether the crawler should perform a network fetch
// at all, as opposed to working only from an already-stored document.
func (p *Default) ShouldFetch() bool { return p.Fetch }

// ShouldSave reports whether a processed document should be persisted.
func (p *Default) ShouldSave() bool { return p.Save }

// ShortForm renders a compact representation for logging.
func (p *Default) ShortForm() string {
	if p.Force {
		return p.Name + "!"
	}
	return p.Name
}

// Descriptor projects the policy to its wire form.
func (p *Default) Descriptor() types.PolicyDescriptor {
	return types.PolicyDescriptor{
		Name:         p.Name,
		Force:        p.Force,
		ExcludeTypes: p.ExcludeTypes,
	}
}

// FromDescriptor reconstructs a Policy from its wire projection, used when
// a dequeued Queuable is turned back into a live Request.
func FromDescriptor(d types.PolicyDescriptor) types.Policy {
	name := d.Name
	if name == "" {
		name = "default"
	}
	return &Default{
		Name:         name,
		Force:        d.Force,
		ExcludeTypes: d.ExcludeTypes,
		Fetch:        true,
		Save:         true,
	}
}
