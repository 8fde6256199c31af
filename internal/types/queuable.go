package types

// Queuable is the wire projection of a Request: the only fields that cross
// a QueueSet broker. Comparing Queuable values (rather than full Requests)
// is how callers reason about queue round-trip identity -- a requeue must
// produce the same Queuable modulo AttemptCount.
type Queuable struct {
	Type         string           `json:"type"`
	URL          string           `json:"url"`
	Context      RequestContext   `json:"context,omitempty"`
	Policy       PolicyDescriptor `json:"policy"`
	AttemptCount int              `json:"attemptCount"`
}

// Equal reports whether two Queuables are identical ignoring AttemptCount,
// the property a requeue must preserve.
func (q Queuable) Equal(other Queuable) bool {
	if q.Type != other.Type || q.URL != other.URL {
		return false
	}
	if !q.Context.equal(other.Context) {
		return false
	}
	return q.Policy.equal(other.Policy)
}

func (p PolicyDescriptor) equal(other PolicyDescriptor) bool {
	if p.Name != other.Name || p.Force != other.Force {
		return false
	}
	if len(p.ExcludeTypes) != len(other.ExcludeTypes) {
		return false
	}
	for i, t := range p.ExcludeTypes {
		if other.ExcludeTypes[i] != t {
			return false
		}
	}
	return true
}

func (c RequestContext) equal(other RequestContext) bool {
	if c.Qualifier != other.Qualifier || c.SubType != other.SubType || c.Force != other.Force {
		return false
	}
	if (c.Relation == nil) != (other.Relation == nil) {
		return false
	}
	if c.Relation == nil {
		return true
	}
	return *c.Relation == *other.Relation
}
