package types

import "testing"

func TestParseLinkHeaderRelsSingle(t *testing.T) {
	header := `<https://api.example.com/repos/foo?page=2>; rel="next"`
	rels := ParseLinkHeaderRels(header)
	if rels["next"] != "https://api.example.com/repos/foo?page=2" {
		t.Errorf("expected next rel to be parsed, got %+v", rels)
	}
}

func TestParseLinkHeaderRelsMultiple(t *testing.T) {
	header := `<https://api.example.com/repos/foo?page=2>; rel="next", <https://api.example.com/repos/foo?page=10>; rel="last"`
	rels := ParseLinkHeaderRels(header)
	if len(rels) != 2 {
		t.Fatalf("expected 2 rels, got %d: %+v", len(rels), rels)
	}
	if rels["next"] != "https://api.example.com/repos/foo?page=2" {
		t.Errorf("unexpected next rel: %+v", rels)
	}
	if rels["last"] != "https://api.example.com/repos/foo?page=10" {
		t.Errorf("unexpected last rel: %+v", rels)
	}
}

func TestParseLinkHeaderRelsEmpty(t *testing.T) {
	rels := ParseLinkHeaderRels("")
	if len(rels) != 0 {
		t.Errorf("expected an empty header to yield no rels, got %+v", rels)
	}
}

func TestParseLinkHeaderRelsMalformedSegmentSkipped(t *testing.T) {
	header := `garbage, <https://api.example.com/repos/foo?page=2>; rel="next"`
	rels := ParseLinkHeaderRels(header)
	if len(rels) != 1 || rels["next"] == "" {
		t.Errorf("expected the malformed segment to be skipped and next still parsed, got %+v", rels)
	}
}

func TestParseLinkHeaderRelsCommaInsideURL(t *testing.T) {
	// A comma embedded inside the angle-bracketed URL must not be treated
	// as a segment separator.
	header := `<https://api.example.com/search?q=a,b>; rel="next"`
	rels := ParseLinkHeaderRels(header)
	if rels["next"] != "https://api.example.com/search?q=a,b" {
		t.Errorf("expected the embedded comma to stay part of the URL, got %+v", rels)
	}
}

func TestLinkKindString(t *testing.T) {
	cases := []struct {
		kind LinkKind
		want string
	}{
		{LinkResource, "resource"},
		{LinkCollection, "collection"},
		{LinkRelation, "relation"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("LinkKind(%d).String() = %q, want %q", c.kind, got, c.want)
		}
	}
}
