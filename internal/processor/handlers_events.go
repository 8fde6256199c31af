package processor

import (
	"github.com/ghcrawl/ghcrawl/internal/types"
	"github.com/ghcrawl/ghcrawl/internal/urn"
)

// RegisterEventHandlers binds the webhook event types onto reg. Event
// payloads vary in shape across field revisions (the page_build event's
// build URL in particular moves around), so every extraction here is
// best-effort: a missing sub-field is a silent no-op rather than an
// error, per the event-handler contract.
func RegisterEventHandlers(reg *Registry) {
	reg.Register("IssuesEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender, linkNested("issue", "issue"),
	}})
	reg.Register("IssueCommentEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender, linkNested("issue", "issue"), linkNested("comment", "issue_comment"),
	}})
	reg.Register("PullRequestEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender, linkNested("pull_request", "issue"),
	}})
	reg.Register("PushEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender, linkCommits,
	}})
	reg.Register("PageBuildEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender, linkPageBuild,
	}})
	reg.Register("WatchEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender,
	}})
	reg.Register("ForkEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender, linkNested("forkee", "repo"),
	}})
	reg.Register("CreateEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender,
	}})
	reg.Register("DeleteEvent", eventHandler{linkers: []eventLinker{
		linkRepository, linkSender,
	}})
}

// eventLinker extracts zero or more links from an event payload into b.
// It never returns an error: a missing field is simply not linked.
type eventLinker func(b *linkBuilder, doc map[string]any)

// eventHandler processes a webhook event body by running each configured
// linker in turn and collecting whatever links/discoveries they produced.
type eventHandler struct {
	linkers []eventLinker
}

func (h eventHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource(req.Type, resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, req.Type, self)

	for _, link := range h.linkers {
		link(b, doc)
	}

	return b.result([]FieldSet{{Type: req.Type, URL: req.URL, Fields: doc}}), nil
}

func linkRepository(b *linkBuilder, doc map[string]any) {
	b.addRoot("repository", "repo", "", "")
}

func linkSender(b *linkBuilder, doc map[string]any) {
	b.addRoot("sender", "user", "", "")
}

func linkCommits(b *linkBuilder, doc map[string]any) {
	commits, ok := doc["commits"].([]any)
	if !ok {
		return
	}
	for _, raw := range commits {
		commit, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		commitURL, _ := commit["url"].(string)
		if commitURL == "" {
			continue
		}
		id, _ := commit["id"].(string)
		b.links = append(b.links, types.Link{
			Kind: types.LinkResource, Type: "commit", URL: commitURL, Name: "commits", Qualifier: urn.Resource("commit", id),
		})
		b.discovered = append(b.discovered, Discovery{
			Request: b.childRequest("commit", commitURL, types.RequestContext{}),
			Queue:   "normal",
		})
	}
}

// linkPageBuild best-effort-extracts the build URL, which has moved
// between `payload.build.url` and other shapes across API revisions; a
// missing field is a no-op, never an error.
func linkPageBuild(b *linkBuilder, doc map[string]any) {
	build, ok := doc["build"].(map[string]any)
	if !ok {
		return
	}
	buildURL, _ := build["url"].(string)
	if buildURL == "" {
		return
	}
	b.links = append(b.links, types.Link{
		Kind: types.LinkResource, Type: "page_build", URL: buildURL, Name: "build",
	})
}

// linkNested builds a linker for a simple nested-object root reference
// (e.g. payload.issue, payload.pull_request, payload.comment).
func linkNested(name, resourceType string) eventLinker {
	return func(b *linkBuilder, doc map[string]any) {
		b.addRoot(name, resourceType, "", "")
	}
}
