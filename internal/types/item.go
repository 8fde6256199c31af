package types

import "time"

// Metadata is the envelope every stored document carries under its
// `_metadata` key, used to decide whether a document needs reprocessing
// when the processor's logic changes shape.
type Metadata struct {
	// Version is the processor version that last wrote this document.
	// ShouldProcess skips reprocessing when Version already equals the
	// running processor's version and the policy doesn't force it.
	Version int `json:"version" bson:"version"`

	// Type is the resource type this document represents (e.g. "repo").
	Type string `json:"type" bson:"type"`

	// URL is the canonical remote URL this document was fetched from.
	URL string `json:"url" bson:"url"`

	// ETag is the last validator observed for this URL, used for the next
	// conditional GET.
	ETag string `json:"etag,omitempty" bson:"etag,omitempty"`

	// FetchedAt is when the underlying representation was last fetched
	// fresh (not when merely revalidated via 304).
	FetchedAt time.Time `json:"fetchedAt" bson:"fetchedAt"`

	// UpdatedAt is when this document was last written to the store.
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Document is a fully-formed storable unit: the processor's extracted
// fields plus its metadata envelope. A Document is never an array at the
// storage boundary -- a collection page is stored as one document with
// its elements wrapped under `elements`.
type Document struct {
	Metadata Metadata       `json:"_metadata"`
	Fields   map[string]any `json:"-"`
}

// NewDocument builds an empty Document addressed at the given type/URL.
func NewDocument(resourceType, url string, processorVersion int) *Document {
	return &Document{
		Metadata: Metadata{
			Version: processorVersion,
			Type:    resourceType,
			URL:     url,
		},
		Fields: make(map[string]any),
	}
}

// Set assigns an extracted field.
func (d *Document) Set(key string, value any) {
	d.Fields[key] = value
}

// Get retrieves an extracted field.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

// Merge flattens the document into a single map with the metadata
// envelope inlined under `_metadata`, ready for Store.Upsert.
func (d *Document) Merge() map[string]any {
	flat := make(map[string]any, len(d.Fields)+1)
	for k, v := range d.Fields {
		flat[k] = v
	}
	flat["_metadata"] = d.Metadata
	return flat
}
