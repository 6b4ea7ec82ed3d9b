package docs

import (
	"encoding/json"

	"github.com/tidwall/sjson"
)

// Request helpers building the Docs API batchUpdate request objects the
// library demonstrates. Each returns a single request object suitable for
// passing to BatchUpdate.

// InsertTextRequest inserts text at a body index. Index 1 is the start of the
// body segment; index 0 is the reserved section break and is rejected by the
// API.
func InsertTextRequest(text string, index int64) json.RawMessage {
	body, _ := sjson.SetBytes([]byte(`{}`), "insertText.text", text)
	body, _ = sjson.SetBytes(body, "insertText.location.index", index)
	return body
}

// InsertTextAtEndRequest inserts text at the end of the body segment, which
// avoids tracking indexes across successive updates.
func InsertTextAtEndRequest(text string) json.RawMessage {
	body, _ := sjson.SetBytes([]byte(`{}`), "insertText.text", text)
	body, _ = sjson.SetRawBytes(body, "insertText.endOfSegmentLocation", []byte(`{}`))
	return body
}

// ReplaceAllTextRequest replaces every occurrence of old with new across the
// document.
func ReplaceAllTextRequest(old, new string, matchCase bool) json.RawMessage {
	body, _ := sjson.SetBytes([]byte(`{}`), "replaceAllText.containsText.text", old)
	body, _ = sjson.SetBytes(body, "replaceAllText.containsText.matchCase", matchCase)
	body, _ = sjson.SetBytes(body, "replaceAllText.replaceText", new)
	return body
}
