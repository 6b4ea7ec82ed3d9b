package docs

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Document is the subset of a Docs API document this library surfaces.
type Document struct {
	DocumentID string
	Title      string
	RevisionID string

	// Body is the raw document body object, kept verbatim for callers that
	// need more than PlainText extracts.
	Body json.RawMessage
}

// ParseDocument extracts the surfaced fields from a raw Docs API document
// response.
func ParseDocument(raw []byte) *Document {
	root := gjson.ParseBytes(raw)
	doc := &Document{
		DocumentID: root.Get("documentId").String(),
		Title:      root.Get("title").String(),
		RevisionID: root.Get("revisionId").String(),
	}
	if body := root.Get("body"); body.Exists() {
		doc.Body = json.RawMessage(body.Raw)
	}
	return doc
}

// PlainText concatenates the text runs of every paragraph in the document
// body. Non-paragraph structural elements (tables, section breaks) are
// skipped.
func (d *Document) PlainText() string {
	if d == nil || len(d.Body) == 0 {
		return ""
	}
	var builder strings.Builder
	gjson.GetBytes(d.Body, "content").ForEach(func(_, element gjson.Result) bool {
		paragraph := element.Get("paragraph")
		if !paragraph.Exists() {
			return true
		}
		paragraph.Get("elements").ForEach(func(_, pe gjson.Result) bool {
			if content := pe.Get("textRun.content"); content.Exists() {
				builder.WriteString(content.String())
			}
			return true
		})
		return true
	})
	return builder.String()
}
