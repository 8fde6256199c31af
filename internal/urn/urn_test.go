package urn

import (
	"reflect"
	"testing"
)

func TestBuild(t *testing.T) {
	cases := []struct {
		parent, typ, name, want string
	}{
		{"", "org", "acme", "org:acme"},
		{"org:acme", "repo", "widget", "org:acme/repo:widget"},
		{"org:acme/repo:widget", "issue", "42", "org:acme/repo:widget/issue:42"},
	}
	for _, c := range cases {
		got := Build(c.parent, c.typ, c.name)
		if got != c.want {
			t.Errorf("Build(%q, %q, %q) = %q, want %q", c.parent, c.typ, c.name, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	got := Parse("org:acme/repo:widget")
	want := []Segment{{Type: "org", Name: "acme"}, {Type: "repo", Name: "widget"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %+v, want %+v", got, want)
	}

	if got := Parse(""); got != nil {
		t.Errorf("Parse(\"\") = %+v, want nil", got)
	}
}

func TestParseMalformedSegment(t *testing.T) {
	got := Parse("org:acme/garbage")
	want := []Segment{{Type: "org", Name: "acme"}, {Type: "garbage", Name: ""}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse with malformed segment = %+v, want %+v", got, want)
	}
}

func TestLeaf(t *testing.T) {
	leaf := Leaf("org:acme/repo:widget")
	if leaf != (Segment{Type: "repo", Name: "widget"}) {
		t.Errorf("Leaf = %+v, want {repo widget}", leaf)
	}

	if leaf := Leaf(""); leaf != (Segment{}) {
		t.Errorf("Leaf(\"\") = %+v, want zero value", leaf)
	}
}

func TestRoot(t *testing.T) {
	if got := Root("org:acme/repo:widget/issue:42"); got != "acme" {
		t.Errorf("Root = %q, want acme", got)
	}
	if got := Root(""); got != "" {
		t.Errorf("Root(\"\") = %q, want empty", got)
	}
}

func TestResource(t *testing.T) {
	if got := Resource("repo", "acme/widget"); got != "urn:repo:acme/widget" {
		t.Errorf("Resource = %q, want urn:repo:acme/widget", got)
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	q := Build(Build(Build("", "org", "acme"), "repo", "widget"), "issue", "42")
	segments := Parse(q)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segments), segments)
	}
	if segments[0] != (Segment{Type: "org", Name: "acme"}) {
		t.Errorf("segment 0 = %+v", segments[0])
	}
	if segments[2] != (Segment{Type: "issue", Name: "42"}) {
		t.Errorf("segment 2 = %+v", segments[2])
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	urls := []string{
		"HTTPS://API.Example.com:443/repos/foo/",
		"https://api.example.com/repos/foo?b=2&a=1",
		"http://api.example.com:80/repos/bar",
	}
	for _, u := range urls {
		once := Canonicalize(u)
		twice := Canonicalize(once)
		if once != twice {
			t.Errorf("Canonicalize not idempotent for %q: %q vs %q", u, once, twice)
		}
	}
}

func TestCanonicalizeEquivalence(t *testing.T) {
	a := Canonicalize("HTTPS://API.Example.com:443/repos/foo/")
	b := Canonicalize("https://api.example.com/repos/foo")
	if a != b {
		t.Errorf("expected equivalent URLs to canonicalize the same: %q vs %q", a, b)
	}
}

func TestCanonicalizeSortsQueryParams(t *testing.T) {
	a := Canonicalize("https://api.example.com/search?b=2&a=1")
	b := Canonicalize("https://api.example.com/search?a=1&b=2")
	if a != b {
		t.Errorf("expected query-param order to not affect canonical form: %q vs %q", a, b)
	}
}
