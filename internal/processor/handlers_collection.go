package processor

import (
	"fmt"

	"github.com/ghcrawl/ghcrawl/internal/types"
	"github.com/ghcrawl/ghcrawl/internal/urn"
)

// RegisterCollectionHandlers binds the "collection" and "page" pseudo
// types onto reg. Neither corresponds to a remote resource type; they are
// reached only through Registry.Dispatch's URL-shape checks (a `page=N`
// query parameter, or a request already tagged Type == "collection" by
// addCollection/addRelation).
func RegisterCollectionHandlers(reg *Registry) {
	reg.Register("collection", collectionHandler{})
	reg.Register("page", pageHandler{})
}

type collectionHandler struct{}

// Handle parses the response's RFC 5988 Link header, enqueues pages
// 2..last onto soon carrying forward the current policy and qualifier,
// then runs the page(1, ...) handler on the document already in hand so
// the collection's first page is never fetched twice.
func (collectionHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)

	var rels map[string]string
	if req.Response != nil {
		rels = types.ParseLinkHeaderRels(req.Response.LinkHeader())
	}

	var discovered []Discovery
	if last, ok := pageFromRel(rels["last"]); ok && last > 1 {
		for n := 2; n <= last; n++ {
			pageURL := withPageParam(rels["last"], n)
			discovered = append(discovered, Discovery{
				Request: &types.Request{
					Kind:    types.KindReal,
					Type:    req.Type,
					URL:     pageURL,
					Context: req.Context,
					Policy:  req.Policy,
				},
				Queue: "soon",
			})
		}
	}

	result, err := pageHandler{}.handlePage(req, doc, 1)
	if err != nil {
		return Result{}, err
	}
	result.Discovered = append(result.Discovered, discovered...)
	return result, nil
}

type pageHandler struct{}

func (h pageHandler) Handle(req *types.Request, body any) (Result, error) {
	n, _ := PageNumber(req.URL)
	if n == 0 {
		n = 1
	}
	return h.handlePage(req, asDoc(body), n)
}

func (pageHandler) handlePage(req *types.Request, doc map[string]any, n int) (Result, error) {
	elementType := req.Context.SubType
	qualifier := req.Context.Qualifier

	selfType := elementType
	if selfType == "" {
		selfType = req.Type
	}
	self := urn.Build(qualifier, selfType, fmt.Sprintf("page:%d", n))
	b := &linkBuilder{req: req, doc: doc, typ: selfType, urn: self, qual: qualifier}
	b.links = append(b.links, types.Link{
		Kind: types.LinkResource, Type: selfType, URL: req.URL, Name: "self", Qualifier: self,
	})

	if req.Context.Relation != nil {
		b.processRelation(*req.Context.Relation, doc)
	}

	elements, _ := doc["elements"].([]any)
	for _, raw := range elements {
		elem, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		elemURL, _ := elem["url"].(string)
		if elemURL == "" {
			continue
		}
		b.discovered = append(b.discovered, Discovery{
			Request: &types.Request{
				Kind:    types.KindReal,
				Type:    elementType,
				URL:     elemURL,
				Context: types.RequestContext{Qualifier: qualifier},
				Policy:  req.Policy,
			},
			Queue: "normal",
		})
	}

	return b.result([]FieldSet{{Type: req.Type, URL: req.URL, Fields: doc}}), nil
}

// processRelation mirrors `_processRelation`: it emits the origin and
// origin-type links back to the resource that discovered this relation,
// a siblings link to the relation's own page series, and a resources
// link enumerating every element's URN.
func (b *linkBuilder) processRelation(rel types.RelationDescriptor, doc map[string]any) {
	b.links = append(b.links, types.Link{
		Kind: types.LinkResource, Type: rel.Origin, Name: "origin", Qualifier: b.req.Context.Qualifier,
	})
	b.links = append(b.links, types.Link{
		Kind: types.LinkResource, Type: rel.Type, Name: "origin-type", Qualifier: urn.Resource(rel.Type, ""),
	})
	b.links = append(b.links, types.Link{
		Kind: types.LinkCollection, Type: rel.Type, Name: rel.Name + ":siblings",
		Qualifier: urn.Build(b.req.Context.Qualifier, rel.Name, "pages"),
	})

	elements, _ := doc["elements"].([]any)
	urns := make([]string, 0, len(elements))
	for _, raw := range elements {
		elem, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		urns = append(urns, urn.Resource(rel.Type, resourceID(elem, "")))
	}
	b.links = append(b.links, types.Link{
		Kind: types.LinkCollection, Type: rel.Type, Name: "resources",
		Qualifier: urn.Build(b.req.Context.Qualifier, rel.Name, "resources"),
		Targets:   urns,
	})
}

func pageFromRel(rawURL string) (int, bool) {
	if rawURL == "" {
		return 0, false
	}
	return PageNumber(rawURL)
}

func withPageParam(rawURL string, n int) string {
	base, query, found := cutQuery(rawURL)
	if !found {
		return fmt.Sprintf("%s?page=%d", rawURL, n)
	}
	return fmt.Sprintf("%s?%s&page=%d", base, stripPageParam(query), n)
}

func cutQuery(rawURL string) (base, query string, found bool) {
	for i := 0; i < len(rawURL); i++ {
		if rawURL[i] == '?' {
			return rawURL[:i], rawURL[i+1:], true
		}
	}
	return rawURL, "", false
}

func stripPageParam(query string) string {
	out := ""
	start := 0
	for i := 0; i <= len(query); i++ {
		if i == len(query) || query[i] == '&' {
			pair := query[start:i]
			if len(pair) < 5 || pair[:5] != "page=" {
				if out != "" {
					out += "&"
				}
				out += pair
			}
			start = i + 1
		}
	}
	return out
}
