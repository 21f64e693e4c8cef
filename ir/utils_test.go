package ir

import "testing"

func TestApplyOffsetShiftsLineAndSyllableTimestamps(t *testing.T) {
	lines := []LyricLine{
		{
			StartMs: 1000, EndMs: 2000,
			MainSyllables: []LyricSyllable{
				{Text: "hel", StartMs: 1000, EndMs: 1500},
				{Text: "lo", StartMs: 1500, EndMs: 2000},
			},
			BackgroundSection: &BackgroundSection{
				StartMs:   1000,
				EndMs:     1200,
				Syllables: []LyricSyllable{{Text: "ooh", StartMs: 1000, EndMs: 1200}},
			},
		},
	}

	ApplyOffset(lines, 500)

	line := lines[0]
	if line.StartMs != 1500 || line.EndMs != 2500 {
		t.Fatalf("unexpected line bounds: %+v", line)
	}
	if line.MainSyllables[0].StartMs != 1500 || line.MainSyllables[1].EndMs != 2500 {
		t.Fatalf("unexpected syllable timestamps: %+v", line.MainSyllables)
	}
	bg := line.BackgroundSection
	if bg.StartMs != 1500 || bg.EndMs != 1700 || bg.Syllables[0].StartMs != 1500 {
		t.Fatalf("unexpected background section timestamps: %+v", bg)
	}
}

func TestApplyOffsetClampsAtZero(t *testing.T) {
	lines := []LyricLine{{StartMs: 300, EndMs: 800}}

	ApplyOffset(lines, -1000)

	if lines[0].StartMs != 0 || lines[0].EndMs != 0 {
		t.Fatalf("expected negative offset to clamp at zero, got %+v", lines[0])
	}
}

func TestApplyOffsetZeroIsNoop(t *testing.T) {
	lines := []LyricLine{{StartMs: 100, EndMs: 200}}

	ApplyOffset(lines, 0)

	if lines[0].StartMs != 100 || lines[0].EndMs != 200 {
		t.Fatalf("expected zero offset to leave timestamps unchanged, got %+v", lines[0])
	}
}
