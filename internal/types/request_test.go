package types

import "testing"

type stubPolicy struct{ descriptor PolicyDescriptor }

func (p *stubPolicy) ShouldProcess(*Request, int) bool    { return true }
func (p *stubPolicy) ShouldFetch() bool                   { return true }
func (p *stubPolicy) ShouldSave() bool                    { return true }
func (p *stubPolicy) ShortForm() string                   { return p.descriptor.Name }
func (p *stubPolicy) Descriptor() PolicyDescriptor        { return p.descriptor }

func TestToFromQueuableRoundTrip(t *testing.T) {
	req := &Request{
		Kind:    KindReal,
		Type:    "repo",
		URL:     "https://api.example.com/repos/foo",
		Context: RequestContext{Qualifier: "org:acme", SubType: "page"},
		Policy:  &stubPolicy{descriptor: PolicyDescriptor{Name: "default", ExcludeTypes: []string{"event"}}},
	}

	q := req.ToQueuable()
	restored := FromQueuable(q, FromDescriptorStub(q.Policy))

	if !restored.ToQueuable().Equal(q) {
		t.Errorf("expected ToQueuable/FromQueuable round trip to preserve Queuable identity")
	}
}

// FromDescriptorStub stands in for policy.FromDescriptor, which this
// package cannot import (policy already imports types); FromQueuable takes
// the decoded Policy as a parameter for exactly this reason.
func FromDescriptorStub(d PolicyDescriptor) Policy {
	return &stubPolicy{descriptor: d}
}

func TestSentinelQueuableProjection(t *testing.T) {
	blank := NewBlankRequest("empty", 0)
	q := blank.ToQueuable()
	if q.Type != "_blank" {
		t.Errorf("expected a blank sentinel to project Type=_blank, got %q", q.Type)
	}

	trap := NewErrorTrapRequest(ErrTimeout, 0)
	q = trap.ToQueuable()
	if q.Type != "_errorTrap" {
		t.Errorf("expected an error-trap sentinel to project Type=_errorTrap, got %q", q.Type)
	}
}

func TestFromQueuableReconstructsKind(t *testing.T) {
	if got := FromQueuable(Queuable{Type: "_blank"}, nil); got.Kind != KindBlank {
		t.Errorf("expected _blank to reconstruct as KindBlank, got %v", got.Kind)
	}
	if got := FromQueuable(Queuable{Type: "_errorTrap"}, nil); got.Kind != KindErrorTrap {
		t.Errorf("expected _errorTrap to reconstruct as KindErrorTrap, got %v", got.Kind)
	}
	if got := FromQueuable(Queuable{Type: "repo"}, nil); got.Kind != KindReal {
		t.Errorf("expected an ordinary type to reconstruct as KindReal, got %v", got.Kind)
	}
}

func TestRequeuePreservesIdentityAndIncrementsAttempt(t *testing.T) {
	policy := &stubPolicy{descriptor: PolicyDescriptor{Name: "default"}}
	req := &Request{
		Kind:         KindReal,
		Type:         "repo",
		URL:          "https://api.example.com/repos/foo",
		Context:      RequestContext{Qualifier: "org:acme"},
		Policy:       policy,
		AttemptCount: 2,
		Document:     map[string]any{"name": "foo"},
		Outcome:      OutcomeError,
	}

	next := req.Requeue()
	if next.AttemptCount != 3 {
		t.Errorf("expected AttemptCount to increment to 3, got %d", next.AttemptCount)
	}
	if next.URL != req.URL || next.Type != req.Type || next.Policy != req.Policy {
		t.Errorf("expected URL/Type/Policy to be preserved verbatim across a requeue")
	}
	if next.Document != nil {
		t.Errorf("expected requeue to drop transient in-flight state (Document), got %+v", next.Document)
	}
	if next.Outcome != OutcomeNone {
		t.Errorf("expected requeue to reset Outcome, got %v", next.Outcome)
	}
}

func TestQueuableEqualIgnoresAttemptCount(t *testing.T) {
	a := Queuable{Type: "repo", URL: "https://api.example.com/repos/foo", AttemptCount: 1}
	b := Queuable{Type: "repo", URL: "https://api.example.com/repos/foo", AttemptCount: 9}
	if !a.Equal(b) {
		t.Errorf("expected Queuable.Equal to ignore AttemptCount")
	}
}

func TestQueuableEqualDetectsURLDifference(t *testing.T) {
	a := Queuable{Type: "repo", URL: "https://api.example.com/repos/foo"}
	b := Queuable{Type: "repo", URL: "https://api.example.com/repos/bar"}
	if a.Equal(b) {
		t.Errorf("expected Queuable.Equal to detect a differing URL")
	}
}

func TestIsRootType(t *testing.T) {
	for _, typ := range []string{"org", "user", "repo", "team", "commit", "issue", "issue_comment", "pull_request"} {
		if !IsRootType(typ) {
			t.Errorf("expected %q to be a root type", typ)
		}
	}
	for _, typ := range []string{"page", "collection", "event"} {
		if IsRootType(typ) {
			t.Errorf("expected %q to not be a root type", typ)
		}
	}
}

func TestMarkHelpers(t *testing.T) {
	req := &Request{}
	req.MarkSkip("Filtered")
	if req.Outcome != OutcomeSkipped || req.Message != "Filtered" {
		t.Errorf("MarkSkip: unexpected state %+v", req)
	}
	if !req.ShouldSkip() {
		t.Errorf("expected ShouldSkip to report true after MarkSkip")
	}

	req.MarkProcessed()
	if req.Outcome != OutcomeProcessed || req.Message != "" {
		t.Errorf("MarkProcessed: unexpected state %+v", req)
	}
	if req.ShouldSkip() {
		t.Errorf("expected ShouldSkip to report false after MarkProcessed")
	}
}
