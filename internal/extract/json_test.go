package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare object", `{"title": "x"}`, `{"title": "x"}`},
		{"surrounded by prose", `Sure! {"title": "x"} Hope that helps.`, `{"title": "x"}`},
		{"nested objects", `{"a": {"b": 1}} trailing`, `{"a": {"b": 1}}`},
		{"braces inside strings", `{"title": "fix } bug {"}`, `{"title": "fix } bug {"}`},
		{"escaped quote in string", `{"title": "say \"hi}\""}`, `{"title": "say \"hi}\""}`},
		{"no object", "nothing here", ""},
		{"unterminated", `{"title": "x"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSON(tt.input))
		})
	}
}

func TestFindJSONEnd(t *testing.T) {
	assert.Equal(t, 1, findJSONEnd("{}", 0))
	assert.Equal(t, 8, findJSONEnd(`xx{"a":1}`, 2))
	assert.Equal(t, -1, findJSONEnd("{{}", 0))
}
