package gemini

import (
	"strings"
	"testing"

	"quiz-battle-service/internal/domain"
)

func TestCleanModelOutputStripsFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`[{"text":"q"}]`, `[{"text":"q"}]`},
		{"```json\n[1,2]\n```", "[1,2]"},
		{"```JSON\n[1]\n```", "[1]"},
		{"```\n[]\n```", "[]"},
		{"  \n[true]\n  ", "[true]"},
	}
	for _, tc := range cases {
		if got := cleanModelOutput(tc.in); got != tc.want {
			t.Fatalf("cleanModelOutput(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildPromptMentionsParameters(t *testing.T) {
	prompt := buildPrompt("roman history", domain.DifficultyHard, 7)
	for _, fragment := range []string{"7", "roman history", "hard", "correctIndex"} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}
