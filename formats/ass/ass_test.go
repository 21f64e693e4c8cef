package ass

import (
	"strings"
	"testing"
)

const sampleASS = `[Script Info]
Title: Test

[V4+ Styles]
Format: Name, Fontname
Style: Default,Arial

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginE, Effect, Text
Dialogue: 0,0:00:01.00,0:00:02.00,Default,v1,0,0,0,,{\k50}hel{\k50}lo
Dialogue: 0,0:00:01.00,0:00:02.00,Translation,en,0,0,0,,hello there
`

func TestParseKaraokeAndTranslation(t *testing.T) {
	data, err := Parse(sampleASS)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 main line, got %d", len(data.Lines))
	}
	line := data.Lines[0]
	if line.Agent != "v1" {
		t.Fatalf("expected agent v1, got %q", line.Agent)
	}
	if len(line.MainSyllables) != 2 || line.MainSyllables[0].Text != "hel" || line.MainSyllables[1].Text != "lo" {
		t.Fatalf("unexpected syllables: %+v", line.MainSyllables)
	}
	if line.MainSyllables[0].StartMs != 1000 || line.MainSyllables[0].EndMs != 1500 {
		t.Fatalf("unexpected syllable timing: %+v", line.MainSyllables[0])
	}
	if len(line.Translations) != 1 || line.Translations[0].Text != "hello there" || line.Translations[0].Lang != "en" {
		t.Fatalf("expected translation attached, got %+v", line.Translations)
	}
}

func TestGenerateEmitsKaraokeTags(t *testing.T) {
	data, err := Parse(sampleASS)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `{\k50}hel`) {
		t.Fatalf("expected karaoke tags in output, got %q", out)
	}
}
