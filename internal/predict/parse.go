package predict

import (
	"encoding/json"
	"strings"
)

// parseModelJSON decodes a model response permissively: code-fence markers
// are stripped and the first top-level JSON object is extracted by brace
// matching before decoding. Returns false on any parse failure.
func parseModelJSON(text string, out any) bool {
	raw := extractObject(stripFences(text))
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

// stripFences removes markdown code-fence lines (``` or ```json) that some
// models wrap around their output despite the system prompt.
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractObject returns the first balanced top-level {...} in text,
// tracking string literals so braces inside values do not confuse the
// depth count.
func extractObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
