package processor

import (
	"fmt"

	"github.com/ghcrawl/ghcrawl/internal/types"
	"github.com/ghcrawl/ghcrawl/internal/urn"
)

// linkBuilder accumulates the links and discovered follow-up Requests a
// single handler invocation produces. It mirrors the `_addRoot` /
// `_addCollection` / `_addRelation` / `_processRelation` helpers: each
// method both records a Link on the document being built and, where the
// helper calls for it, appends a Discovery the crawler will push onto the
// QueueSet once the handler returns.
type linkBuilder struct {
	req  *types.Request
	doc  map[string]any
	typ  string // this resource's own type, for relation origins
	urn  string // this resource's own URN, once known (set by caller)
	qual string // qualifier new child requests should nest under

	links      []types.Link
	discovered []Discovery
}

func newLinkBuilder(req *types.Request, doc map[string]any, resourceType, resourceURN string) *linkBuilder {
	return &linkBuilder{
		req:  req,
		doc:  doc,
		typ:  resourceType,
		urn:  resourceURN,
		qual: urn.Build(req.Context.Qualifier, resourceType, leafName(resourceURN)),
	}
}

func (b *linkBuilder) result(fields []FieldSet) Result {
	return Result{Fields: fields, Links: b.links, Discovered: b.discovered}
}

// nested reads document[name], supporting both a nested object ({"url":
// ..., "id": ...}) and a bare URL string, the two shapes a hypermedia API
// field takes in practice.
func (b *linkBuilder) nested(name string) (id, fieldURL string, ok bool) {
	raw, present := b.doc[name]
	if !present || raw == nil {
		return "", "", false
	}
	switch v := raw.(type) {
	case string:
		return v, v, v != ""
	case map[string]any:
		u, _ := v["url"].(string)
		switch rawID := v["id"].(type) {
		case string:
			id = rawID
		case float64:
			id = fmt.Sprintf("%d", int64(rawID))
		}
		if id == "" {
			id = u
		}
		return id, u, u != "" || id != ""
	default:
		return "", "", false
	}
}

// addRoot mirrors `_addRoot(request, name, type, url?, urn?)`: if the
// document already carries a nested object/url under name, or both an
// explicit url and urn are supplied, it records a resource link and
// enqueues a root Request for the referenced entity.
func (b *linkBuilder) addRoot(name, resourceType, explicitURL, explicitURN string) {
	id, fieldURL := explicitURL, explicitURL
	if explicitURL == "" || explicitURN == "" {
		var ok bool
		id, fieldURL, ok = b.nested(name)
		if !ok {
			return
		}
	}
	target := explicitURN
	if target == "" {
		target = urn.Resource(resourceType, id)
	}
	b.links = append(b.links, types.Link{
		Kind: types.LinkResource, Type: resourceType, URL: fieldURL, Name: name, Qualifier: target,
	})
	b.discovered = append(b.discovered, Discovery{
		Request: b.childRequest(resourceType, fieldURL, types.RequestContext{}),
		Queue:   "normal",
	})
}

// addCollection mirrors `_addCollection(request, name, type, url?, urn?)`:
// records a collection link and enqueues one "collection" Request with
// resourceType as its SubType. The request carries the parent's qualifier
// whether or not resourceType is a root type: only non-root types set it
// explicitly, and childRequest fills it in for the rest.
func (b *linkBuilder) addCollection(name, resourceType, explicitURL string) {
	fieldURL := explicitURL
	if fieldURL == "" {
		_, u, ok := b.nested(name)
		if !ok {
			return
		}
		fieldURL = u
	}
	target := urn.Build(b.qual, resourceType, "pages")
	b.links = append(b.links, types.Link{
		Kind: types.LinkCollection, Type: resourceType, URL: fieldURL, Name: name, Qualifier: target,
	})

	ctx := types.RequestContext{SubType: resourceType}
	if !types.IsRootType(resourceType) {
		ctx.Qualifier = b.qual
	}
	b.discovered = append(b.discovered, Discovery{
		Request: b.childRequest("collection", fieldURL, ctx),
		Queue:   "normal",
	})
}

// addRelation mirrors `_addRelation(request, name, type, url?, urn?)`: a
// relation differs from a plain collection in that the discovered
// collection request carries context.relation back-pointing at this
// resource, so the page
// handler can later emit origin/sibling links via processRelation.
func (b *linkBuilder) addRelation(name, resourceType, explicitURL string) {
	fieldURL := explicitURL
	if fieldURL == "" {
		_, u, ok := b.nested(name)
		if !ok {
			return
		}
		fieldURL = u
	}
	target := urn.Build(b.qual, resourceType, "pages")
	b.links = append(b.links, types.Link{
		Kind: types.LinkRelation, Type: resourceType, URL: fieldURL, Name: name, Qualifier: target,
	})

	ctx := types.RequestContext{
		SubType: resourceType,
		Relation: &types.RelationDescriptor{
			Origin: b.typ,
			Name:   name,
			Type:   resourceType,
		},
	}
	b.discovered = append(b.discovered, Discovery{
		Request: b.childRequest("collection", fieldURL, ctx),
		Queue:   "normal",
	})
}

func (b *linkBuilder) childRequest(resourceType, url string, ctx types.RequestContext) *types.Request {
	if ctx.Qualifier == "" {
		ctx.Qualifier = b.qual
	}
	return &types.Request{
		Kind:    types.KindReal,
		Type:    resourceType,
		URL:     url,
		Context: ctx,
		Policy:  b.req.Policy,
	}
}

// rootSelfAndSiblings records the self-resource link and the siblings
// collection link every root-typed handler (org/user/repo/team/commit/
// issue/issue_comment) emits before its type-specific child links.
func (b *linkBuilder) rootSelfAndSiblings(selfURL string) {
	b.links = append(b.links, types.Link{
		Kind: types.LinkResource, Type: b.typ, URL: selfURL, Name: "self", Qualifier: b.urn,
	})
	b.links = append(b.links, types.Link{
		Kind: types.LinkCollection, Type: b.typ, Name: "siblings", Qualifier: urn.Resource(b.typ, "pages"),
	})
}

// resourceID reads the remote numeric/string id a fetched document
// carries, falling back to the request URL when the document has none
// (e.g. a 304 rehydrated from the store without a fresh body).
func resourceID(doc map[string]any, fallback string) string {
	switch v := doc["id"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%d", int64(v))
	}
	return fallback
}

func leafName(resourceURN string) string {
	seg := urn.Leaf(trimURNPrefix(resourceURN))
	if seg.Name != "" {
		return seg.Name
	}
	return seg.Type
}

// trimURNPrefix strips the literal "urn:" prefix so the remaining
// "type:id" fragment parses as a single urn.Segment.
func trimURNPrefix(s string) string {
	const prefix = "urn:"
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}
