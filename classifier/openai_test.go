package classifier

import (
	"strings"
	"testing"

	"github.com/coreybb/dailybrief/models"
)

func TestNewOpenAIClassifier(t *testing.T) {
	c := NewOpenAIClassifier("test-key", "")
	if c.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want default", c.model)
	}

	c = NewOpenAIClassifier("test-key", "gpt-4o")
	if c.model != "gpt-4o" {
		t.Errorf("model = %q", c.model)
	}
}

func TestParseGuess(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Guess
		wantErr bool
	}{
		{
			name:    "bare object",
			content: `{"intent": "add_source", "source": "medium", "confidence": 0.9}`,
			want:    Guess{Intent: "add_source", Source: "medium", Confidence: 0.9},
		},
		{
			name:    "fenced object",
			content: "```json\n{\"intent\": \"unsubscribe\", \"confidence\": 0.8}\n```",
			want:    Guess{Intent: "unsubscribe", Confidence: 0.8},
		},
		{
			name:    "surrounding whitespace",
			content: "  \n{\"intent\": \"change_time\", \"time\": \"08:00\", \"confidence\": 0.7}\n ",
			want:    Guess{Intent: "change_time", Time: "08:00", Confidence: 0.7},
		},
		{
			name:    "not json",
			content: "I think the user wants to add medium.",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGuess(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseGuess: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseGuess = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("add medium please", models.StageActive)

	for _, want := range []string{
		`"add medium please"`,
		"active",
		"add_source",
		"unsubscribe",
		"confidence",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
