package analyzer

import (
	"bytes"
	"encoding/json"
)

// extractJSONObject returns the JSON object or array substring of raw,
// stripping a surrounding ```json fence or stray prose the way the
// teacher's outputparser.extractJSON does (outputparser/json_parser.go),
// generalized here to bytes since CompleteStructured already returns
// json.RawMessage rather than a free-text completion.
func extractJSONObject(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if json.Valid(trimmed) {
		return trimmed
	}

	if fenced := bytes.Index(trimmed, []byte("```")); fenced != -1 {
		rest := trimmed[fenced+3:]
		rest = bytes.TrimPrefix(rest, []byte("json"))
		if end := bytes.Index(rest, []byte("```")); end != -1 {
			candidate := bytes.TrimSpace(rest[:end])
			if json.Valid(candidate) {
				return candidate
			}
		}
	}

	start := bytes.IndexByte(trimmed, '{')
	end := bytes.LastIndexByte(trimmed, '}')
	if start != -1 && end > start {
		candidate := trimmed[start : end+1]
		if json.Valid(candidate) {
			return candidate
		}
	}

	return trimmed
}
