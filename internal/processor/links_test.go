package processor

import (
	"testing"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

func testRequest() *types.Request {
	return &types.Request{
		Kind:    types.KindReal,
		Type:    "repo",
		URL:     "https://api.example.com/repos/foo",
		Context: types.RequestContext{Qualifier: "org:acme"},
		Policy:  &stubLinkPolicy{},
	}
}

type stubLinkPolicy struct{}

func (stubLinkPolicy) ShouldProcess(*types.Request, int) bool   { return true }
func (stubLinkPolicy) ShouldFetch() bool                        { return true }
func (stubLinkPolicy) ShouldSave() bool                         { return true }
func (stubLinkPolicy) ShortForm() string                        { return "default" }
func (stubLinkPolicy) Descriptor() types.PolicyDescriptor        { return types.PolicyDescriptor{Name: "default"} }

func TestNestedBareURLString(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{"owner": "https://api.example.com/users/alice"}, "repo", "urn:repo:foo")

	id, url, ok := b.nested("owner")
	if !ok || id != "https://api.example.com/users/alice" || url != id {
		t.Errorf("expected bare-URL field to resolve id=url=field, got id=%q url=%q ok=%v", id, url, ok)
	}
}

func TestNestedObjectWithIDAndURL(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{
		"owner": map[string]any{"id": float64(42), "url": "https://api.example.com/users/alice"},
	}, "repo", "urn:repo:foo")

	id, url, ok := b.nested("owner")
	if !ok || id != "42" || url != "https://api.example.com/users/alice" {
		t.Errorf("expected nested object to resolve id=42 url=..., got id=%q url=%q ok=%v", id, url, ok)
	}
}

func TestNestedMissingField(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{}, "repo", "urn:repo:foo")

	if _, _, ok := b.nested("owner"); ok {
		t.Errorf("expected a missing field to report ok=false")
	}
}

func TestAddRootFromNestedField(t *testing.T) {
	req := testRequest()
	doc := map[string]any{"owner": map[string]any{"id": "alice", "url": "https://api.example.com/users/alice"}}
	b := newLinkBuilder(req, doc, "repo", "urn:repo:foo")

	b.addRoot("owner", "user", "", "")

	if len(b.links) != 1 || b.links[0].Type != "user" || b.links[0].Kind != types.LinkResource {
		t.Fatalf("expected one resource link for owner, got %+v", b.links)
	}
	if len(b.discovered) != 1 || b.discovered[0].Request.URL != "https://api.example.com/users/alice" {
		t.Fatalf("expected a discovered root request for the owner, got %+v", b.discovered)
	}
	if b.discovered[0].Queue != "normal" {
		t.Errorf("expected addRoot to enqueue onto normal, got %q", b.discovered[0].Queue)
	}
}

func TestAddRootSkipsWhenFieldAbsent(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{}, "repo", "urn:repo:foo")

	b.addRoot("owner", "user", "", "")
	if len(b.links) != 0 || len(b.discovered) != 0 {
		t.Errorf("expected no link/discovery when the field is absent, got links=%+v discovered=%+v", b.links, b.discovered)
	}
}

func TestAddCollectionRecordsLinkAndDiscovery(t *testing.T) {
	req := testRequest()
	doc := map[string]any{"issues_url": "https://api.example.com/repos/foo/issues"}
	b := newLinkBuilder(req, doc, "repo", "urn:repo:foo")

	b.addCollection("issues_url", "issue", "https://api.example.com/repos/foo/issues")

	if len(b.links) != 1 || b.links[0].Kind != types.LinkCollection {
		t.Fatalf("expected one collection link, got %+v", b.links)
	}
	if len(b.discovered) != 1 {
		t.Fatalf("expected one discovered collection request, got %+v", b.discovered)
	}
	if b.discovered[0].Request.Context.SubType != "issue" {
		t.Errorf("expected SubType=issue, got %q", b.discovered[0].Request.Context.SubType)
	}
	// childRequest falls back to the builder's own qualifier whenever the
	// caller didn't set one explicitly, which both the root-type and
	// non-root-type addCollection branches leave unset.
	if b.discovered[0].Request.Context.Qualifier != b.qual {
		t.Errorf("expected the discovered request to inherit the builder's qualifier, got %q want %q", b.discovered[0].Request.Context.Qualifier, b.qual)
	}
}

func TestAddCollectionSkipsWhenFieldAbsent(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{}, "repo", "urn:repo:foo")

	b.addCollection("labels_url", "label", "")
	if len(b.links) != 0 || len(b.discovered) != 0 {
		t.Errorf("expected no link/discovery when the field is absent and no explicit URL given, got links=%+v discovered=%+v", b.links, b.discovered)
	}
}

func TestAddRelationSetsRelationDescriptor(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{}, "repo", "urn:repo:foo")

	b.addRelation("collaborators_url", "collaborator", "https://api.example.com/repos/foo/collaborators")

	if len(b.links) != 1 || b.links[0].Kind != types.LinkRelation {
		t.Fatalf("expected one relation link, got %+v", b.links)
	}
	rel := b.discovered[0].Request.Context.Relation
	if rel == nil || rel.Origin != "repo" || rel.Name != "collaborators_url" || rel.Type != "collaborator" {
		t.Errorf("expected the discovered request to carry a RelationDescriptor, got %+v", rel)
	}
}

func TestResourceID(t *testing.T) {
	if got := resourceID(map[string]any{"id": "abc"}, "fallback"); got != "abc" {
		t.Errorf("resourceID with string id = %q, want abc", got)
	}
	if got := resourceID(map[string]any{"id": float64(7)}, "fallback"); got != "7" {
		t.Errorf("resourceID with numeric id = %q, want 7", got)
	}
	if got := resourceID(map[string]any{}, "fallback"); got != "fallback" {
		t.Errorf("resourceID with no id = %q, want fallback", got)
	}
}

func TestLeafName(t *testing.T) {
	if got := leafName("urn:repo:widget"); got != "widget" {
		t.Errorf("leafName(urn:repo:widget) = %q, want widget", got)
	}
	if got := leafName("urn:repo"); got != "repo" {
		t.Errorf("leafName(urn:repo) = %q, want repo (falls back to Type when Name is empty)", got)
	}
}

func TestRootSelfAndSiblings(t *testing.T) {
	req := testRequest()
	b := newLinkBuilder(req, map[string]any{}, "repo", "urn:repo:foo")

	b.rootSelfAndSiblings("https://api.example.com/repos/foo")

	if len(b.links) != 2 {
		t.Fatalf("expected self + siblings links, got %+v", b.links)
	}
	if b.links[0].Name != "self" || b.links[1].Name != "siblings" {
		t.Errorf("unexpected link names: %+v", b.links)
	}
}
