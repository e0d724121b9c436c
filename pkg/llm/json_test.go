package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"intent":"qna"}`, `{"intent":"qna"}`},
		{"fenced block", "```json\n{\"intent\":\"qna\"}\n```", `{"intent":"qna"}`},
		{"prose around", `Sure, here is the result: {"intent":"qna"} Hope that helps.`, `{"intent":"qna"}`},
		{"nested objects", `{"a":{"b":1},"c":2}`, `{"a":{"b":1},"c":2}`},
		{"braces inside strings", `{"text":"use {curly} braces \" fine"}`, `{"text":"use {curly} braces \" fine"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractJSONObjectErrors(t *testing.T) {
	for _, in := range []string{"", "no json here", `{"unterminated": true`} {
		_, err := ExtractJSONObject(in)
		assert.ErrorIs(t, err, ErrNoJSONObject, "input %q", in)
	}
}
