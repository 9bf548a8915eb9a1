package extract

import "strings"

// ExtractJSON returns the first brace-balanced object in text, or "" if there is none.
// Models sometimes wrap JSON in markdown fences or add prose around it.
func ExtractJSON(text string) string {
	start := findJSONStart(text)
	if start < 0 {
		return ""
	}

	end := findJSONEnd(text, start)
	if end < 0 {
		return ""
	}

	return text[start : end+1]
}

func findJSONStart(text string) int {
	return strings.IndexByte(text, '{')
}

func findJSONEnd(text string, start int) int {
	// Find matching closing brace, ignoring braces inside strings
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
