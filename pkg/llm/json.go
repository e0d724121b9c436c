package llm

import (
	"errors"
	"strings"
)

// ErrNoJSONObject means the completion text carried no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in completion")

// ExtractJSONObject pulls the first complete JSON object out of a
// completion, tolerating markdown code fences and prose around it.
// Providers in JSON mode return bare objects; others wrap them.
func ExtractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)

	// Strip a fenced block if the whole payload sits inside one.
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSONObject
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
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONObject
}
