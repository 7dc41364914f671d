package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formats accepted by Write.
const (
	JSON = "json"
	EDN  = "edn"
)

// Write writes v in the requested format; an empty format means JSON.
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	default:
		return fmt.Errorf("unknown format: %s (want json|edn)", format)
	}
}

// WriteJSON writes one JSON document followed by a newline. Output stays
// strict JSON so it can be piped into jq.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Envelope wraps command output as {"data": v}, plus optional meta.
func Envelope(v any, meta map[string]any) map[string]any {
	out := map[string]any{"data": v}
	if len(meta) > 0 {
		out["meta"] = meta
	}
	return out
}
