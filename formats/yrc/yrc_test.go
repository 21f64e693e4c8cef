package yrc

import "testing"

func TestParseAbsoluteSyllableTiming(t *testing.T) {
	data, err := Parse(`{"c":[{"tx":"info"}]}
[1000,1000](1000,400,0)hel(1400,600,0)lo
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
	if got := data.RawMetadata["json"]; len(got) != 1 {
		t.Fatalf("expected JSON metadata line captured, got %v", got)
	}
	syls := data.Lines[0].MainSyllables
	if len(syls) != 2 || syls[0].Text != "hel" || syls[1].Text != "lo" {
		t.Fatalf("unexpected syllables: %+v", syls)
	}
	if syls[0].StartMs != 1000 || syls[0].EndMs != 1400 {
		t.Fatalf("unexpected first syllable timing: %+v", syls[0])
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	data, err := Parse("[0,1000](0,1000,0)hi\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "[0,1000](0,1000,0)hi\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}
