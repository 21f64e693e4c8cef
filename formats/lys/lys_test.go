package lys

import "testing"

func TestParseAgentAndSyllables(t *testing.T) {
	data, err := Parse("[1]hello(1000,500)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
	line := data.Lines[0]
	if line.Agent != "v2" {
		t.Fatalf("expected agent v2 for right-agent bit, got %q", line.Agent)
	}
	if len(line.MainSyllables) != 1 || line.MainSyllables[0].Text != "hello" {
		t.Fatalf("unexpected syllables: %+v", line.MainSyllables)
	}
	if line.MainSyllables[0].StartMs != 1000 || line.MainSyllables[0].EndMs != 1500 {
		t.Fatalf("unexpected syllable timing: %+v", line.MainSyllables[0])
	}
}

func TestParseBackgroundFlag(t *testing.T) {
	data, err := Parse("[4]bg(0,100)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	line := data.Lines[0]
	if line.BackgroundSection == nil {
		t.Fatalf("expected background section for bit 2")
	}
	if len(line.BackgroundSection.Syllables) != 1 || line.BackgroundSection.Syllables[0].Text != "bg" {
		t.Fatalf("unexpected background syllables: %+v", line.BackgroundSection.Syllables)
	}
}

func TestGenerateRoundTripsAttribute(t *testing.T) {
	data, err := Parse("[1]hi(0,100)\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "[1]hi(0,100)\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}
