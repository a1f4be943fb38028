package disambig

import (
	"strings"
	"testing"

	"github.com/ossgeo/geoparse/internal/model"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantID     string
		wantConf   model.Confidence
		wantErr    bool
	}{
		{
			name:     "plain JSON",
			text:     `{"selected_id": "c2", "confidence": "high", "reasoning": "matches nearby names"}`,
			wantID:   "c2",
			wantConf: model.ConfidenceHigh,
		},
		{
			name:     "json code fence",
			text:     "Here is my answer:\n```json\n{\"selected_id\": \"c0\", \"confidence\": \"low\", \"reasoning\": \"weak\"}\n```\nHope that helps.",
			wantID:   "c0",
			wantConf: model.ConfidenceLow,
		},
		{
			name:     "bare code fence",
			text:     "```\n{\"selected_id\": \"c1\", \"confidence\": \"high\", \"reasoning\": \"r\"}\n```",
			wantID:   "c1",
			wantConf: model.ConfidenceHigh,
		},
		{
			name:     "null selection",
			text:     `{"selected_id": null, "confidence": "low", "reasoning": "insufficient evidence"}`,
			wantID:   "",
			wantConf: model.ConfidenceLow,
		},
		{
			name:     "string null selection",
			text:     `{"selected_id": "null", "confidence": "low", "reasoning": "none fit"}`,
			wantID:   "",
			wantConf: model.ConfidenceLow,
		},
		{
			name:     "numeric index echo",
			text:     `{"selected_id": 3, "confidence": "high", "reasoning": "r"}`,
			wantID:   "c3",
			wantConf: model.ConfidenceHigh,
		},
		{
			name:     "unknown confidence reads medium",
			text:     `{"selected_id": "c1", "confidence": "certain", "reasoning": "r"}`,
			wantID:   "c1",
			wantConf: model.ConfidenceMedium,
		},
		{
			name:     "missing confidence reads medium",
			text:     `{"selected_id": "c1", "reasoning": "r"}`,
			wantID:   "c1",
			wantConf: model.ConfidenceMedium,
		},
		{
			name:    "not JSON",
			text:    "I think it is London, England.",
			wantErr: true,
		},
		{
			name:    "boolean selected_id",
			text:    `{"selected_id": true, "confidence": "high", "reasoning": "r"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := ParseDecision(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecision failed: %v", err)
			}
			if decision.SelectedID != tt.wantID {
				t.Errorf("SelectedID = %q, want %q", decision.SelectedID, tt.wantID)
			}
			if decision.Confidence != tt.wantConf {
				t.Errorf("Confidence = %s, want %s", decision.Confidence, tt.wantConf)
			}
		})
	}
}

func TestParseDecision_DefaultReasoning(t *testing.T) {
	decision, err := ParseDecision(`{"selected_id": "c1", "confidence": "high"}`)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if decision.Reasoning != "No reasoning provided" {
		t.Errorf("empty reasoning should get the placeholder, got %q", decision.Reasoning)
	}
}

func TestStricterPrompt(t *testing.T) {
	prompt := buildPrompt(promptInput{
		Toponym:    "London",
		Candidates: []model.Candidate{{ID: "c0", Title: "London"}},
	})

	if !strings.Contains(prompt, formatInstruction) {
		t.Fatal("initial prompt should carry the base format instruction")
	}

	strict := stricterPrompt(prompt)
	if !strings.Contains(strict, strictFormatInstruction) {
		t.Error("retry prompt should carry the strict format instruction")
	}
	if strings.Contains(strings.Replace(strict, strictFormatInstruction, "", 1), formatInstruction) {
		t.Error("retry prompt should not retain the base instruction")
	}
}
