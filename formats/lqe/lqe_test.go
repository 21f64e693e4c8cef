package lqe

import (
	"strings"
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

const sample = `[Lyricify Quick Export]
[version:1.0]
[ar:Someone]
[lyrics: format@lrc, language@ja]
[00:01.000]hello
[00:05.000]world

[translation: format@lrc, language@en]
[00:01.000]こんにちは
[00:05.020]世界
`

func TestParseFoldsTranslation(t *testing.T) {
	data, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(data.Lines))
	}
	if len(data.Lines[0].Translations) != 1 || data.Lines[0].Translations[0].Text != "こんにちは" {
		t.Fatalf("expected translation folded onto line 0, got %+v", data.Lines[0].Translations)
	}
	if len(data.Lines[1].Translations) != 1 || data.Lines[1].Translations[0].Text != "世界" {
		t.Fatalf("expected translation folded onto line 1 within tolerance, got %+v", data.Lines[1].Translations)
	}
	if got := data.RawMetadata["ar"]; len(got) != 1 || got[0] != "Someone" {
		t.Fatalf("expected ar metadata lifted to container level, got %v", got)
	}
}

func TestParseMissingHeader(t *testing.T) {
	if _, err := Parse("[lyrics: format@lrc, language@en]\n[00:01.00]hi\n"); err == nil {
		t.Fatalf("expected error for missing header marker")
	}
}

func TestGenerateRoundTripsMainBlock(t *testing.T) {
	lines := []ir.LyricLine{
		{StartMs: 1000, EndMs: 2000, LineText: "hello", HasLineText: true,
			Translations: []ir.TranslationEntry{{Text: "bonjour", Lang: "fr"}}},
	}
	out, err := Generate(lines, ir.NewMetadataStore(), Options{MainFormat: ir.FormatLRC, AuxiliaryFormat: ir.FormatLRC})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "[Lyricify Quick Export]") {
		t.Fatalf("expected header marker, got %q", out)
	}
	if !strings.Contains(out, "[lyrics: format@lrc") {
		t.Fatalf("expected lyrics block header, got %q", out)
	}
	if !strings.Contains(out, "[translation: format@lrc, language@fr]") {
		t.Fatalf("expected translation block header, got %q", out)
	}
	if !strings.Contains(out, "bonjour") {
		t.Fatalf("expected translation text in output, got %q", out)
	}
}
