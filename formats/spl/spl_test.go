package spl

import "testing"

func TestParseLineOnly(t *testing.T) {
	data, err := Parse("[00:01.50]hello world\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
	if data.Lines[0].StartMs != 1500 {
		t.Fatalf("expected StartMs 1500, got %d", data.Lines[0].StartMs)
	}
	if data.Lines[0].LineText != "hello world" {
		t.Fatalf("unexpected line text: %q", data.Lines[0].LineText)
	}
}

func TestParseWordTiming(t *testing.T) {
	data, err := Parse("[00:01.00]<00:01.00>hi <00:01.50>there\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	syls := data.Lines[0].MainSyllables
	if len(syls) != 2 {
		t.Fatalf("expected 2 syllables, got %d: %+v", len(syls), syls)
	}
	if syls[0].Text != "hi" || !syls[0].EndsWithSpace {
		t.Fatalf("unexpected first syllable: %+v", syls[0])
	}
	if syls[1].StartMs != 1000 || syls[1].EndMs != 1500 {
		t.Fatalf("unexpected second syllable timing: %+v", syls[1])
	}
}

func TestGenerateLineTimedWhenSingleSyllable(t *testing.T) {
	data, err := Parse("[00:01.00]solo\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "[00:01.00]solo\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}
