package agentsmd

import (
	"testing"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/model"
)

func TestRenderParseRoundTrip(t *testing.T) {
	in := []model.Section{
		{Heading: "Testing", Level: 2, Content: "Run tests before pushing.", Fingerprint: "t1"},
		{Heading: "Dependencies", Level: 2, Content: "Pin versions in go.mod."},
		{Heading: "Detail", Level: 3, Content: "Nested guidance."},
	}

	a := New()
	rendered := a.Render(in, adapter.RenderOptions{IncludeFingerprints: true})

	res, err := a.Parse(rendered)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(res.Sections) != len(in) {
		t.Fatalf("parsed %d sections, want %d", len(res.Sections), len(in))
	}
	for i := range in {
		got := res.Sections[i]
		if got.Heading != in[i].Heading || got.Level != in[i].Level {
			t.Errorf("section %d = %q level %d, want %q level %d",
				i, got.Heading, got.Level, in[i].Heading, in[i].Level)
		}
		if got.Content != adapter.NormalizeContent(in[i].Content) {
			t.Errorf("section %d content = %q", i, got.Content)
		}
		if got.Fingerprint != in[i].Fingerprint {
			t.Errorf("section %d fingerprint = %q, want %q", i, got.Fingerprint, in[i].Fingerprint)
		}
	}
}

func TestRenderIsStable(t *testing.T) {
	in := []model.Section{
		{Heading: "Testing", Level: 2, Content: "Run tests.", Fingerprint: "t1"},
	}

	a := New()
	first := a.Render(in, adapter.RenderOptions{IncludeFingerprints: true})
	second := a.Render(in, adapter.RenderOptions{IncludeFingerprints: true})

	if first != second {
		t.Error("rendering the same sections twice produced different bytes")
	}

	// Render -> parse -> render must also be byte-stable, or sync would
	// never converge.
	parsed, err := a.Parse(first)
	if err != nil {
		t.Fatal(err)
	}
	roundTrip := make([]model.Section, len(parsed.Sections))
	for i, p := range parsed.Sections {
		roundTrip[i] = model.Section{
			Heading:     p.Heading,
			Level:       p.Level,
			Content:     p.Content,
			Fingerprint: p.Fingerprint,
		}
	}
	third := a.Render(roundTrip, adapter.RenderOptions{IncludeFingerprints: true})
	if third != first {
		t.Errorf("render/parse/render drifted:\n%q\nvs\n%q", first, third)
	}
}
