package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// Bodies larger than this are not inspected for field extraction.
const maxPeekBytes = 1 << 20

// PeekBodyField reads the JSON request body and returns the first non-empty
// string value among the given field names. The body is restored so that
// downstream middleware and handlers can read it again.
func PeekBodyField(r *http.Request, names ...string) string {
	if r.Body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil || len(data) == 0 {
		return ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ""
	}
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err == nil && value != "" {
			return value
		}
	}
	return ""
}
