package merge

import (
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func TestFoldTranslationsAligned(t *testing.T) {
	primary := &ir.ParsedSourceData{
		Lines: []ir.LyricLine{
			{StartMs: 1000, EndMs: 2000},
			{StartMs: 5000, EndMs: 6000},
		},
	}
	aux := &ir.ParsedSourceData{
		Lines: []ir.LyricLine{
			{StartMs: 1010, LineText: "hello"},
			{StartMs: 5000, LineText: "world"},
		},
	}
	FoldTranslations(primary, []Aux{{Data: aux, Lang: "en"}})

	if len(primary.Lines[0].Translations) != 1 || primary.Lines[0].Translations[0].Text != "hello" {
		t.Fatalf("expected line 0 translation 'hello', got %+v", primary.Lines[0].Translations)
	}
	if len(primary.Lines[1].Translations) != 1 || primary.Lines[1].Translations[0].Text != "world" {
		t.Fatalf("expected line 1 translation 'world', got %+v", primary.Lines[1].Translations)
	}
	if len(primary.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", primary.Warnings)
	}
}

func TestFoldTranslationsUnmatchedWarns(t *testing.T) {
	primary := &ir.ParsedSourceData{
		Lines: []ir.LyricLine{{StartMs: 1000, EndMs: 2000}},
	}
	aux := &ir.ParsedSourceData{
		Lines: []ir.LyricLine{{StartMs: 9000, LineText: "orphan"}},
	}
	FoldTranslations(primary, []Aux{{Data: aux, Lang: "en"}})

	if len(primary.Lines[0].Translations) != 0 {
		t.Fatalf("expected no translation applied, got %+v", primary.Lines[0].Translations)
	}
	if len(primary.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", primary.Warnings)
	}
}

func TestFoldRomanizationsOutsideTolerance(t *testing.T) {
	primary := &ir.ParsedSourceData{
		Lines: []ir.LyricLine{{StartMs: 1000, EndMs: 2000}},
	}
	aux := &ir.ParsedSourceData{
		Lines: []ir.LyricLine{{StartMs: 1025, LineText: "romaji"}},
	}
	FoldRomanizations(primary, []Aux{{Data: aux, Lang: "romaji"}})

	if len(primary.Lines[0].Romanizations) != 0 {
		t.Fatalf("expected romanization to fall outside tolerance, got %+v", primary.Lines[0].Romanizations)
	}
	if len(primary.Warnings) != 1 {
		t.Fatalf("expected one warning for unmatched romanization, got %v", primary.Warnings)
	}
}
