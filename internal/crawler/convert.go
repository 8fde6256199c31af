package crawler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// decodeBody turns a fetched representation into the generic map a
// Processor handler operates on. A top-level JSON array is wrapped as
// {"elements": [...]} so collection handlers have a uniform shape to
// range over regardless of whether the remote API returns an array or an
// already-enveloped object. A non-JSON body whose Content-Type names HTML
// falls back to a best-effort goquery extraction rather than an empty
// document.
func decodeBody(meta *types.FetchMeta) map[string]any {
	if len(meta.Body) == 0 {
		return map[string]any{}
	}

	var arr []any
	if err := json.Unmarshal(meta.Body, &arr); err == nil {
		return map[string]any{"elements": arr}
	}

	var obj map[string]any
	if err := json.Unmarshal(meta.Body, &obj); err == nil {
		return obj
	}

	if doc, ok := decodeHTMLFallback(meta); ok {
		return doc
	}

	return map[string]any{}
}

// decodeHTMLFallback handles the rare non-JSON representation (an HTML
// error page, a documentation stub) by lazily parsing it with goquery
// instead of discarding it outright. It extracts only what downstream
// handlers need: the page title, and every anchor href as a bare-URL
// "elements" entry so the page handler can walk them the same way it
// walks a JSON collection's elements.
func decodeHTMLFallback(meta *types.FetchMeta) (map[string]any, bool) {
	if !strings.Contains(meta.ContentType, "html") {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(meta.Body))
	if err != nil {
		return nil, false
	}

	var elements []any
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			elements = append(elements, href)
		}
	})

	return map[string]any{
		"title":    strings.TrimSpace(doc.Find("title").First().Text()),
		"elements": elements,
	}, true
}
