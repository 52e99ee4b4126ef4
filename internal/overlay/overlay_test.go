package overlay

import (
	"strings"
	"testing"

	"github.com/rulealign/rulealign/internal/model"
)

func overlayDoc() *model.Document {
	return &model.Document{
		ID:          "project-rules",
		Version:     "1.0.0",
		SpecVersion: "1.0",
		Sections: []model.Section{
			{Heading: "Testing", Level: 2, Content: "Run tests", Fingerprint: "t1"},
			{Heading: "Style", Level: 2, Content: "Small functions"},
		},
	}
}

func TestEvaluateSelector(t *testing.T) {
	doc := overlayDoc()

	tests := []struct {
		name     string
		selector string
		success  bool
		index    int
	}{
		{"positional", "sections[1]", true, 1},
		{"positional out of range", "sections[5]", false, -1},
		{"by rule id", "rule[id=t1]", true, 0},
		{"unknown rule id", "rule[id=missing]", false, -1},
		{"bad grammar", "section.first", false, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := EvaluateSelector(tt.selector, doc)
			if res.Success != tt.success {
				t.Errorf("Success = %v, want %v (%s)", res.Success, tt.success, res.Reason)
			}
			if res.SectionIndex != tt.index {
				t.Errorf("SectionIndex = %d, want %d", res.SectionIndex, tt.index)
			}
		})
	}
}

func TestCheckHealthStaleAfterSectionRemoved(t *testing.T) {
	doc := overlayDoc()
	overlays := []model.Overlay{
		{Selector: "sections[0]", Set: map[string]any{"level": 3}},
	}

	health := CheckHealth(doc, overlays)
	if len(health) != 1 || !health[0].Healthy {
		t.Fatalf("selector over a live section reported stale: %+v", health)
	}

	doc.Sections = nil
	health = CheckHealth(doc, overlays)
	if health[0].Healthy {
		t.Error("selector over a removed section reported healthy")
	}
	if health[0].Reason == "" {
		t.Error("stale overlay carries no reason")
	}
}

func TestApplySetAndRemove(t *testing.T) {
	doc := overlayDoc()
	doc.Sections[0].Vendor = map[string]map[string]any{
		"cursor": {"globs": "*.go", "alwaysApply": true},
	}

	overlays := []model.Overlay{
		{
			Selector: "rule[id=t1]",
			Set: map[string]any{
				"content":              "Run tests with coverage",
				"vendor.cursor.globs":  "*.go,*.ts",
				"vendor.claude.notice": "project override",
			},
			Remove: []string{"vendor.cursor.alwaysApply"},
		},
	}

	result := Apply(doc, overlays)

	if !result.Success() {
		t.Fatalf("apply failed: %v", result.Errors)
	}
	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}

	patched := result.Document.Sections[0]
	if patched.Content != "Run tests with coverage" {
		t.Errorf("content not set: %q", patched.Content)
	}
	if patched.Vendor["cursor"]["globs"] != "*.go,*.ts" {
		t.Error("vendor key not updated")
	}
	if patched.Vendor["claude"]["notice"] != "project override" {
		t.Error("new vendor bag not created")
	}
	if _, exists := patched.Vendor["cursor"]["alwaysApply"]; exists {
		t.Error("removed vendor key still present")
	}

	// The input document is never mutated.
	if doc.Sections[0].Content != "Run tests" {
		t.Error("Apply mutated the input document")
	}
}

func TestApplyPartialFailure(t *testing.T) {
	doc := overlayDoc()
	overlays := []model.Overlay{
		{Selector: "rule[id=missing]", Set: map[string]any{"level": 3}},
		{Selector: "sections[1]", Set: map[string]any{"content": "Tiny functions"}},
	}

	result := Apply(doc, overlays)

	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one selector failure", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Error(), "rule[id=missing]") {
		t.Errorf("selector failure does not name the selector: %v", result.Errors[0])
	}
	if result.Document.Sections[1].Content != "Tiny functions" {
		t.Error("later overlay was not applied after an earlier failure")
	}
}

func TestApplyCountsMatchedSelectorsDespiteBadOperations(t *testing.T) {
	doc := overlayDoc()
	overlays := []model.Overlay{
		{Selector: "sections[0]", Set: map[string]any{"level": "three"}},
	}

	result := Apply(doc, overlays)

	// The selector matched, so the overlay counts as applied; the invalid
	// operation is a recorded error, not a silent skip.
	if result.Applied != 1 {
		t.Errorf("Applied = %d, want 1", result.Applied)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one operation failure", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Error(), "set level") {
		t.Errorf("operation failure does not name the operation: %v", result.Errors[0])
	}
}

func TestApplyRejectsInvalidOperations(t *testing.T) {
	doc := overlayDoc()

	tests := []struct {
		name    string
		overlay model.Overlay
	}{
		{"remove required field", model.Overlay{Selector: "sections[0]", Remove: []string{"heading"}}},
		{"set unknown field", model.Overlay{Selector: "sections[0]", Set: map[string]any{"owner": "me"}}},
		{"set level to string", model.Overlay{Selector: "sections[0]", Set: map[string]any{"level": "three"}}},
		{"no operations", model.Overlay{Selector: "sections[0]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Apply(doc, []model.Overlay{tt.overlay})
			if len(result.Errors) == 0 {
				t.Error("invalid operation applied without error")
			}
		})
	}
}
