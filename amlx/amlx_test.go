package amlx

import (
	"strings"
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func sampleData() *ir.ParsedSourceData {
	dur := int64(500)
	return &ir.ParsedSourceData{
		SourceFormat: ir.FormatQRC,
		RawMetadata:  map[string][]string{"ar": {"Someone"}, "ti": {"Song"}},
		Lines: []ir.LyricLine{
			{
				StartMs: 1000, EndMs: 2000, Agent: "v1",
				MainSyllables: []ir.LyricSyllable{
					{Text: "hel", StartMs: 1000, EndMs: 1500, DurationMs: &dur},
					{Text: "lo", StartMs: 1500, EndMs: 2000, EndsWithSpace: true},
				},
				Translations:  []ir.TranslationEntry{{Text: "你好", Lang: "zh"}},
				Romanizations: []ir.RomanizationEntry{{Text: "nihao", Lang: "zh-Latn"}},
				BackgroundSection: &ir.BackgroundSection{
					StartMs:   1000,
					EndMs:     1200,
					Syllables: []ir.LyricSyllable{{Text: "ooh", StartMs: 1000, EndMs: 1200}},
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleData()
	raw, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.SourceFormat != original.SourceFormat {
		t.Fatalf("SourceFormat mismatch: %v vs %v", decoded.SourceFormat, original.SourceFormat)
	}
	if len(decoded.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(decoded.Lines))
	}
	line := decoded.Lines[0]
	if line.Agent != "v1" || line.StartMs != 1000 || line.EndMs != 2000 {
		t.Fatalf("unexpected line: %+v", line)
	}
	if len(line.MainSyllables) != 2 || line.MainSyllables[0].Text != "hel" {
		t.Fatalf("unexpected syllables: %+v", line.MainSyllables)
	}
	if line.MainSyllables[0].DurationMs == nil || *line.MainSyllables[0].DurationMs != 500 {
		t.Fatalf("expected duration override preserved, got %+v", line.MainSyllables[0].DurationMs)
	}
	if !line.MainSyllables[1].EndsWithSpace {
		t.Fatalf("expected EndsWithSpace preserved")
	}
	if len(line.Translations) != 1 || line.Translations[0].Text != "你好" {
		t.Fatalf("unexpected translations: %+v", line.Translations)
	}
	if line.BackgroundSection == nil || len(line.BackgroundSection.Syllables) != 1 {
		t.Fatalf("unexpected background section: %+v", line.BackgroundSection)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := Decode([]byte("nope")); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestInspectReportsCounts(t *testing.T) {
	raw, err := Encode(sampleData())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Inspect(raw)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !strings.Contains(out, "lines:      1") {
		t.Fatalf("expected line count in output, got %q", out)
	}
	if !strings.Contains(out, "syllables:  3") {
		t.Fatalf("expected syllable count (2 main + 1 background), got %q", out)
	}
}
