package gemini

import (
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestBuildPrompt(t *testing.T) {
	digest := "=== Commit: abc1234 ===\nMessage: add parser"
	prompt := buildPrompt(digest)

	if !strings.Contains(prompt, digest) {
		t.Error("prompt does not embed the commit digest")
	}
	for _, dim := range scoreDimensions {
		if !strings.Contains(prompt, dim) {
			t.Errorf("prompt missing rubric dimension %q", dim)
		}
	}
}

func TestParseResult(t *testing.T) {
	raw := []byte(`{
		"scores": {"test": 80, "comment": 70, "commit_size": 60,
		           "commit_frequency": 50, "commit_message": 90, "activity": 40},
		"report": {"test": "a", "comment": "b", "commit_size": "c",
		           "commit_frequency": "d", "commit_message": "e", "activity": "f"}
	}`)

	result, err := parseResult(raw)
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}
	if result.Scores.Test != 80 || result.Scores.Activity != 40 {
		t.Errorf("scores mismatch: %+v", result.Scores)
	}
	if result.Report.CommitMessage != "e" {
		t.Errorf("report mismatch: %+v", result.Report)
	}
}

func TestParseResult_OutOfRangeScoresPassThrough(t *testing.T) {
	raw := []byte(`{
		"scores": {"test": 150, "comment": -10, "commit_size": 0,
		           "commit_frequency": 0, "commit_message": 0, "activity": 0},
		"report": {"test": "", "comment": "", "commit_size": "",
		           "commit_frequency": "", "commit_message": "", "activity": ""}
	}`)

	result, err := parseResult(raw)
	if err != nil {
		t.Fatalf("parseResult failed: %v", err)
	}
	if result.Scores.Test != 150 || result.Scores.Comment != -10 {
		t.Errorf("scores should pass through unclamped: %+v", result.Scores)
	}
}

func TestParseResult_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing scores", `{"report": {"test": "a"}}`},
		{"missing report", `{"scores": {"test": 1}}`},
		{"empty object", `{}`},
		{"not json", `scores: fine`},
		{"null scores", `{"scores": null, "report": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseResult([]byte(tt.raw)); err == nil {
				t.Errorf("parseResult(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestResultSchema(t *testing.T) {
	schema := resultSchema()

	if schema.Type != genai.TypeObject {
		t.Fatalf("top-level type = %v, want object", schema.Type)
	}
	if len(schema.Required) != 2 {
		t.Errorf("top-level required = %v, want [scores report]", schema.Required)
	}

	for _, key := range []string{"scores", "report"} {
		obj, ok := schema.Properties[key]
		if !ok {
			t.Fatalf("schema missing %q object", key)
		}
		if len(obj.Required) != len(scoreDimensions) {
			t.Errorf("%s required fields = %d, want %d", key, len(obj.Required), len(scoreDimensions))
		}
		for _, dim := range scoreDimensions {
			if _, ok := obj.Properties[dim]; !ok {
				t.Errorf("%s schema missing dimension %q", key, dim)
			}
		}
	}

	// Scores are integers, report entries are strings.
	if schema.Properties["scores"].Properties["test"].Type != genai.TypeInteger {
		t.Error("score fields should be integers")
	}
	if schema.Properties["report"].Properties["test"].Type != genai.TypeString {
		t.Error("report fields should be strings")
	}
}
