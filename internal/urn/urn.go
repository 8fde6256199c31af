// Package urn builds and parses the qualifier strings used to address a
// resource's place in the traversal hierarchy (e.g. "org:acme" or
// "org:acme/repo:widget"). A qualifier is the storage address prefix a
// derived request's result is nested under.
package urn

import (
	"strings"
)

const sep = "/"

// Build appends a new type:name segment onto a parent qualifier. An empty
// parent yields a bare root segment.
func Build(parent, resourceType, name string) string {
	seg := resourceType + ":" + name
	if parent == "" {
		return seg
	}
	return parent + sep + seg
}

// Segment is one type:name pair within a qualifier.
type Segment struct {
	Type string
	Name string
}

// Parse splits a qualifier into its ordered segments. A malformed segment
// (missing the colon) is kept verbatim as a Type with an empty Name rather
// than erroring, since a qualifier is diagnostic metadata, not a control
// value the caller branches on.
func Parse(qualifier string) []Segment {
	if qualifier == "" {
		return nil
	}
	parts := strings.Split(qualifier, sep)
	segments := make([]Segment, 0, len(parts))
	for _, p := range parts {
		typ, name, found := strings.Cut(p, ":")
		if !found {
			segments = append(segments, Segment{Type: typ})
			continue
		}
		segments = append(segments, Segment{Type: typ, Name: name})
	}
	return segments
}

// Leaf returns the last segment of a qualifier, or the zero Segment if
// qualifier is empty.
func Leaf(qualifier string) Segment {
	segments := Parse(qualifier)
	if len(segments) == 0 {
		return Segment{}
	}
	return segments[len(segments)-1]
}

// Root returns the first segment's name, typically the org or user the
// whole traversal was seeded from.
func Root(qualifier string) string {
	segments := Parse(qualifier)
	if len(segments) == 0 {
		return ""
	}
	return segments[0].Name
}

// Resource builds the content-addressed URN for a single resource, the
// only identifier form that crosses the document graph (as opposed to a
// qualifier, which addresses a nesting position in storage).
func Resource(resourceType, id string) string {
	return "urn:" + resourceType + ":" + id
}
