package processors

import "github.com/apoint123/lyricsforge/ir"

// SmoothSyllables closes micro-gaps between adjacent syllables within a
// line: a gap smaller than thresholdMs extends the earlier syllable's
// EndMs to the later syllable's StartMs. Gaps never cross a line or
// background-section boundary, per spec.md §4.6. A non-positive
// threshold is a no-op.
func SmoothSyllables(lines []ir.LyricLine, thresholdMs int64) {
	if thresholdMs <= 0 {
		return
	}
	for i := range lines {
		smoothRun(lines[i].MainSyllables, thresholdMs)
		if bg := lines[i].BackgroundSection; bg != nil {
			smoothRun(bg.Syllables, thresholdMs)
		}
	}
}

func smoothRun(syls []ir.LyricSyllable, thresholdMs int64) {
	for i := 1; i < len(syls); i++ {
		gap := syls[i].StartMs - syls[i-1].EndMs
		if gap > 0 && gap < thresholdMs {
			syls[i-1].EndMs = syls[i].StartMs
		}
	}
}
