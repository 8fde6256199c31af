package types

import (
	"time"
)

// Kind distinguishes a real remote-resource request from the two internal
// sentinel markers a loop synthesizes when there is nothing real to do.
// Folding the old `_blank`/`_errorTrap` string sentinels into a typed
// variant (while still accepting/emitting those strings on the wire, see
// FromQueuable/ToQueuable) is a deliberate redesign over treating them as
// magic Type strings throughout the pipeline.
type Kind int

const (
	// KindReal is an ordinary request against a remote resource URL.
	KindReal Kind = iota
	// KindBlank is synthesized when a pop finds no work; it carries only a
	// polling delay through the pipeline.
	KindBlank
	// KindErrorTrap is synthesized when getRequest itself fails.
	KindErrorTrap
)

func (k Kind) String() string {
	switch k {
	case KindBlank:
		return "_blank"
	case KindErrorTrap:
		return "_errorTrap"
	default:
		return "real"
	}
}

// Outcome is the terminal disposition of a request's trip through the
// pipeline, decided by the stage that first needs to short-circuit the
// rest of the chain.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeProcessed
	OutcomeSkipped
	OutcomeRequeued
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRequeued:
		return "requeued"
	case OutcomeError:
		return "error"
	default:
		return "none"
	}
}

// MaxAttempts bounds redelivery before a request is dead-lettered.
const MaxAttempts = 5

// RelationDescriptor tags a request discovered through a named relation
// link (e.g. a repo's "collaborators" relation) rather than plain nesting.
type RelationDescriptor struct {
	Origin string `json:"origin"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

// RequestContext carries parent qualifiers across a request's lifetime,
// through requeues and through derived pagination requests.
type RequestContext struct {
	// Qualifier is the URN prefix identifying the parent scope this
	// request's result should be stored/addressed under.
	Qualifier string `json:"qualifier,omitempty"`
	// Relation is set when this request was discovered via a relation link.
	Relation *RelationDescriptor `json:"relation,omitempty"`
	// SubType carries a collection request's element subtype (e.g. "page").
	SubType string `json:"subType,omitempty"`
	// Force requests rehydration from the store even on a conditional 304.
	Force bool `json:"force,omitempty"`
}

// PolicyDescriptor is the serializable projection of a Policy, carried on
// the wire so a requeued or derived request keeps its traversal policy
// without the queue needing to know how to construct one.
type PolicyDescriptor struct {
	Name         string   `json:"name"`
	Force        bool     `json:"force,omitempty"`
	ExcludeTypes []string `json:"excludeTypes,omitempty"`
}

// Policy gates whether a request's result is processed, fetched fresh, or
// persisted. It is attached at request creation and survives requeues and
// derived requests. The interface lives in types (rather than in the
// package that implements it) so that types stays free of a dependency on
// internal/policy.
type Policy interface {
	ShouldProcess(req *Request, processorVersion int) bool
	ShouldFetch() bool
	ShouldSave() bool
	ShortForm() string
	Descriptor() PolicyDescriptor
}

// Lease is an opaque handle on a held URL lock, returned by a
// LockService.Acquire call and released on ack/abandon.
type Lease struct {
	URL       string
	Token     string
	ExpiresAt time.Time
}

// StageMeta accumulates per-stage timings for diagnostics and logging; it
// never crosses the wire.
type StageMeta struct {
	Status  int
	FetchMS int64
	StoreMS int64
	LockMS  int64
	Attempt int
}

// Request is the traversal unit threaded through the crawler pipeline. It
// is owned by exactly one loop between pop and ack/abandon/requeue.
type Request struct {
	Kind    Kind
	Type    string
	URL     string
	Context RequestContext
	Policy  Policy

	AttemptCount int

	Document map[string]any
	Response *FetchMeta

	// StoredVersion is the processor version recorded on the document
	// already in the store for this URL, or -1 if no document exists yet.
	// The store-lookup stage populates this before the policy decides
	// whether reprocessing is necessary.
	StoredVersion int

	Outcome Outcome
	Message string
	Meta    StageMeta

	// Promises are background side-effect handles (discovered-request
	// enqueues, link writes) that must all complete before ack.
	Promises []<-chan error

	Lock *Lease

	Start    time.Time
	LoopName string

	// NextRequestTime is a backpressure signal: the earliest clock at
	// which the owning loop may dequeue its next request. Set on the
	// `_blank` and `_errorTrap` sentinels to throttle empty-queue polling.
	NextRequestTime time.Time
}

// NewBlankRequest synthesizes the `_blank` sentinel emitted when a pop
// finds no work.
func NewBlankRequest(reason string, pollDelay time.Duration) *Request {
	return &Request{
		Kind:            KindBlank,
		Outcome:         OutcomeSkipped,
		Message:         reason,
		Start:           time.Now(),
		NextRequestTime: time.Now().Add(pollDelay),
	}
}

// NewErrorTrapRequest synthesizes the `_errorTrap` sentinel emitted when
// getRequest itself returns an error.
func NewErrorTrapRequest(err error, pollDelay time.Duration) *Request {
	return &Request{
		Kind:            KindErrorTrap,
		Outcome:         OutcomeError,
		Message:         err.Error(),
		Start:           time.Now(),
		NextRequestTime: time.Now().Add(pollDelay),
	}
}

// IsSentinel reports whether this request is an internal marker rather
// than a real remote-resource request.
func (r *Request) IsSentinel() bool {
	return r.Kind != KindReal
}

// ShouldSkip reports whether a stage downstream of an earlier decision
// should pass this request through untouched.
func (r *Request) ShouldSkip() bool {
	return r.Outcome == OutcomeSkipped || r.Outcome == OutcomeError || r.Outcome == OutcomeRequeued
}

// MarkSkip records a Skipped outcome with a reason. Returns r for chaining.
func (r *Request) MarkSkip(reason string) *Request {
	r.Outcome = OutcomeSkipped
	r.Message = reason
	return r
}

// MarkRequeue records a Requeued outcome with a reason.
func (r *Request) MarkRequeue(reason string) *Request {
	r.Outcome = OutcomeRequeued
	r.Message = reason
	return r
}

// MarkError records an Error outcome from an underlying error.
func (r *Request) MarkError(err error) *Request {
	r.Outcome = OutcomeError
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// MarkProcessed records a Processed outcome.
func (r *Request) MarkProcessed() *Request {
	r.Outcome = OutcomeProcessed
	r.Message = ""
	return r
}

// ToQueuable projects the Request to its serializable form. Transient
// in-memory fields (lock, promises, document, response, per-stage meta)
// never cross the wire.
func (r *Request) ToQueuable() Queuable {
	q := Queuable{
		Type:         r.Type,
		URL:          r.URL,
		Context:      r.Context,
		AttemptCount: r.AttemptCount,
	}
	switch r.Kind {
	case KindBlank:
		q.Type = "_blank"
	case KindErrorTrap:
		q.Type = "_errorTrap"
	}
	if r.Policy != nil {
		q.Policy = r.Policy.Descriptor()
	}
	return q
}

// FromQueuable reconstructs a Request from a dequeued wire projection. The
// caller supplies the decoded Policy since Queuable only carries its
// descriptor.
func FromQueuable(q Queuable, policy Policy) *Request {
	kind := KindReal
	switch q.Type {
	case "_blank":
		kind = KindBlank
	case "_errorTrap":
		kind = KindErrorTrap
	}
	return &Request{
		Kind:         kind,
		Type:         q.Type,
		URL:          q.URL,
		Context:      q.Context,
		Policy:       policy,
		AttemptCount: q.AttemptCount,
		Start:        time.Now(),
	}
}

// Requeue returns a fresh copy of r suitable for re-enqueuing: type, URL,
// policy and context are preserved verbatim and AttemptCount increments by
// one. All transient in-flight state (lock, promises, document, response,
// outcome) is dropped.
func (r *Request) Requeue() *Request {
	return &Request{
		Kind:         r.Kind,
		Type:         r.Type,
		URL:          r.URL,
		Context:      r.Context,
		Policy:       r.Policy,
		AttemptCount: r.AttemptCount + 1,
	}
}

// IsRootType reports whether a resource type is independently addressable
// (crawled and stored on its own) as opposed to existing only nested
// inside a parent collection page.
func IsRootType(t string) bool {
	switch t {
	case "org", "user", "repo", "team", "commit", "issue", "issue_comment", "pull_request":
		return true
	default:
		return false
	}
}
