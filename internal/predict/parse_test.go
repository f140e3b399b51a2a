package predict

import (
	"strings"
	"testing"
)

func TestParseModelJSON(t *testing.T) {
	type payload struct {
		Winner      string  `json:"winner"`
		Probability float64 `json:"probability"`
	}

	tests := []struct {
		name string
		text string
		ok   bool
		want payload
	}{
		{
			name: "plain object",
			text: `{"winner": "Alpha", "probability": 62.5}`,
			ok:   true,
			want: payload{Winner: "Alpha", Probability: 62.5},
		},
		{
			name: "fenced object",
			text: "```json\n{\"winner\": \"Alpha\", \"probability\": 62.5}\n```",
			ok:   true,
			want: payload{Winner: "Alpha", Probability: 62.5},
		},
		{
			name: "prose around object",
			text: "Sure! Here is my prediction:\n{\"winner\": \"Beta\", \"probability\": 55}\nLet me know if you need more.",
			ok:   true,
			want: payload{Winner: "Beta", Probability: 55},
		},
		{
			name: "braces inside string values",
			text: `{"winner": "Alpha", "probability": 60, "reasoning": "strong {CT} side"}`,
			ok:   true,
			want: payload{Winner: "Alpha", Probability: 60},
		},
		{
			name: "escaped quote inside string",
			text: `{"winner": "Alpha", "probability": 60, "reasoning": "the \"favorites\" here"}`,
			ok:   true,
			want: payload{Winner: "Alpha", Probability: 60},
		},
		{
			name: "no object at all",
			text: "Alpha will win, probably around 60%.",
			ok:   false,
		},
		{
			name: "unterminated object",
			text: `{"winner": "Alpha", "probability": 60`,
			ok:   false,
		},
		{
			name: "empty input",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			ok := parseModelJSON(tt.text, &got)
			if ok != tt.ok {
				t.Fatalf("parseModelJSON ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parsed %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractObjectFirstOfSeveral(t *testing.T) {
	got := extractObject(`{"a": 1} {"b": 2}`)
	if got != `{"a": 1}` {
		t.Errorf("extractObject = %q, want first object", got)
	}
}

func TestStripFencesKeepsContent(t *testing.T) {
	got := stripFences("```json\n{\"a\": 1}\n```")
	if !strings.Contains(got, `{"a": 1}`) {
		t.Errorf("stripFences = %q, payload lost", got)
	}
	if strings.Contains(got, "```") {
		t.Errorf("stripFences = %q, fence survived", got)
	}
}
