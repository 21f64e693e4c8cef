package processors

import (
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func timedSyl(start, end int64) ir.LyricSyllable {
	return ir.LyricSyllable{StartMs: start, EndMs: end}
}

func TestSmoothSyllablesClosesSmallGap(t *testing.T) {
	lines := []ir.LyricLine{
		{MainSyllables: []ir.LyricSyllable{timedSyl(0, 100), timedSyl(110, 200)}},
	}
	SmoothSyllables(lines, 50)
	if lines[0].MainSyllables[0].EndMs != 110 {
		t.Fatalf("expected gap closed, got EndMs %d", lines[0].MainSyllables[0].EndMs)
	}
}

func TestSmoothSyllablesLeavesLargeGap(t *testing.T) {
	lines := []ir.LyricLine{
		{MainSyllables: []ir.LyricSyllable{timedSyl(0, 100), timedSyl(500, 600)}},
	}
	SmoothSyllables(lines, 50)
	if lines[0].MainSyllables[0].EndMs != 100 {
		t.Fatalf("expected gap unchanged, got EndMs %d", lines[0].MainSyllables[0].EndMs)
	}
}

func TestSmoothSyllablesDoesNotCrossLineBoundary(t *testing.T) {
	lines := []ir.LyricLine{
		{MainSyllables: []ir.LyricSyllable{timedSyl(0, 100)}},
		{MainSyllables: []ir.LyricSyllable{timedSyl(110, 200)}},
	}
	SmoothSyllables(lines, 50)
	if lines[0].MainSyllables[0].EndMs != 100 {
		t.Fatalf("expected first line unaffected by second line's syllables, got %d", lines[0].MainSyllables[0].EndMs)
	}
}

func TestSmoothSyllablesZeroThresholdNoop(t *testing.T) {
	lines := []ir.LyricLine{
		{MainSyllables: []ir.LyricSyllable{timedSyl(0, 100), timedSyl(105, 200)}},
	}
	SmoothSyllables(lines, 0)
	if lines[0].MainSyllables[0].EndMs != 100 {
		t.Fatalf("expected no-op, got %d", lines[0].MainSyllables[0].EndMs)
	}
}
