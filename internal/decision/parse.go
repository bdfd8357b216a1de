package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"microcap_trading/internal/models"

	"github.com/PaesslerAG/jsonpath"
)

// Parse decodes raw JSON into a generic document, keeping numbers as
// json.Number so integer checks are exact. Markdown code fences around the
// payload are tolerated. When path is set (and not "$") the batch is taken
// from that JSONPath inside the document.
func Parse(data []byte, path string) (any, error) {
	data = stripFences(data)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Section: "batch", Index: -1, Expected: "a JSON document", Actual: err.Error()}
	}

	if path == "" || path == "$" {
		return doc, nil
	}

	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, &ValidationError{Section: "batch", Index: -1, Field: path, Expected: "a value at JSONPath", Actual: err.Error()}
	}
	// wildcard paths return a list; the first match is the batch
	if list, ok := v.([]any); ok && len(list) > 0 {
		if _, isObj := list[0].(map[string]any); isObj {
			v = list[0]
		}
	}
	return v, nil
}

func stripFences(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
		data = data[nl+1:]
	} else {
		data = data[3:]
	}
	data = bytes.TrimSpace(data)
	data = bytes.TrimSuffix(data, []byte("```"))
	return bytes.TrimSpace(data)
}

// Defaults are the values Normalize may fill in. Zero fields are never filled.
type Defaults struct {
	Version string
	Now     time.Time
}

// Normalize fills absent top-level fields: version, generatedAt and an empty
// stopLossUpdates list. Present values are left alone, even invalid ones;
// rejecting them is Validate's job. The input document is not modified.
func Normalize(doc any, def Defaults) any {
	obj, ok := doc.(map[string]any)
	if !ok {
		return doc
	}

	out := make(map[string]any, len(obj)+2)
	for k, v := range obj {
		out[k] = v
	}

	if absent(out, "version") && def.Version != "" {
		out["version"] = def.Version
	}
	if absent(out, "generatedAt") && !def.Now.IsZero() {
		out["generatedAt"] = def.Now.UTC().Format(time.RFC3339)
	}
	if absent(out, "stopLossUpdates") {
		out["stopLossUpdates"] = []any{}
	}
	return out
}

func absent(obj map[string]any, key string) bool {
	v, ok := obj[key]
	return !ok || v == nil
}

// FileSource reads a decision batch from disk. The portfolio is ignored.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(_ context.Context, _ models.Portfolio) ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read decision file: %w", err)
	}
	return b, nil
}
