package processor

import (
	"github.com/ghcrawl/ghcrawl/internal/types"
	"github.com/ghcrawl/ghcrawl/internal/urn"
)

// RegisterRootHandlers binds the independently-addressable resource types
// (org/user/repo/team/commit/issue/issue_comment) onto reg. Each handler
// adds the root-self link, the siblings collection link, and the
// type-specific child links/collections/relations a hypermedia API
// exposes for that resource.
func RegisterRootHandlers(reg *Registry) {
	reg.Register("org", orgHandler{})
	reg.Register("user", userHandler{})
	reg.Register("repo", repoHandler{})
	reg.Register("team", teamHandler{})
	reg.Register("commit", commitHandler{})
	reg.Register("issue", issueHandler{})
	reg.Register("issue_comment", issueCommentHandler{})
}

func asDoc(body any) map[string]any {
	if doc, ok := body.(map[string]any); ok {
		return doc
	}
	return map[string]any{}
}

type orgHandler struct{}

func (orgHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("org", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "org", self)
	b.rootSelfAndSiblings(req.URL)

	b.addCollection("repos_url", "repo", "")
	b.addCollection("members_url", "user", "")
	b.addRelation("teams_url", "team", "")

	return b.result([]FieldSet{{Type: "org", URL: req.URL, Fields: doc}}), nil
}

type userHandler struct{}

func (userHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("user", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "user", self)
	b.rootSelfAndSiblings(req.URL)

	b.addCollection("repos_url", "repo", "")
	b.addCollection("organizations_url", "org", "")

	return b.result([]FieldSet{{Type: "user", URL: req.URL, Fields: doc}}), nil
}

type repoHandler struct{}

func (repoHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("repo", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "repo", self)
	b.rootSelfAndSiblings(req.URL)

	if owner, _, ok := b.nested("owner"); ok {
		ownerType := "user"
		if orgFlag, _ := doc["owner_type"].(string); orgFlag == "Organization" {
			ownerType = "org"
		}
		b.addRoot("owner", ownerType, "", urn.Resource(ownerType, owner))
	}

	b.addCollection("issues_url", "issue", "")
	b.addCollection("commits_url", "commit", "")
	b.addCollection("teams_url", "team", "")
	b.addRelation("collaborators_url", "user", "")
	b.addRelation("contributors_url", "user", "")

	return b.result([]FieldSet{{Type: "repo", URL: req.URL, Fields: doc}}), nil
}

type teamHandler struct{}

func (teamHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("team", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "team", self)
	b.rootSelfAndSiblings(req.URL)

	b.addRelation("members_url", "user", "")
	b.addRelation("repositories_url", "repo", "")

	return b.result([]FieldSet{{Type: "team", URL: req.URL, Fields: doc}}), nil
}

type commitHandler struct{}

func (commitHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("commit", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "commit", self)
	b.rootSelfAndSiblings(req.URL)

	if author, ok := doc["author"].(map[string]any); ok {
		if login, _ := author["login"].(string); login != "" {
			authorURL, _ := author["url"].(string)
			b.addRoot("author", "user", authorURL, urn.Resource("user", login))
		}
	}

	return b.result([]FieldSet{{Type: "commit", URL: req.URL, Fields: doc}}), nil
}

type issueHandler struct{}

func (issueHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("issue", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "issue", self)
	b.rootSelfAndSiblings(req.URL)

	b.addRoot("user", "user", "", "")
	b.addCollection("comments_url", "issue_comment", "")
	b.addRelation("assignees", "user", "")

	return b.result([]FieldSet{{Type: "issue", URL: req.URL, Fields: doc}}), nil
}

type issueCommentHandler struct{}

func (issueCommentHandler) Handle(req *types.Request, body any) (Result, error) {
	doc := asDoc(body)
	self := urn.Resource("issue_comment", resourceID(doc, req.URL))
	b := newLinkBuilder(req, doc, "issue_comment", self)
	b.rootSelfAndSiblings(req.URL)

	b.addRoot("user", "user", "", "")

	return b.result([]FieldSet{{Type: "issue_comment", URL: req.URL, Fields: doc}}), nil
}
