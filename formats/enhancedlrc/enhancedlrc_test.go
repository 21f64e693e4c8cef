package enhancedlrc

import (
	"strings"
	"testing"
)

func TestParseWordTiming(t *testing.T) {
	content := "[00:01.000]<00:01.000>hello <00:01.500>world\n"
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
	syls := data.Lines[0].MainSyllables
	if len(syls) != 2 {
		t.Fatalf("expected 2 syllables, got %d: %+v", len(syls), syls)
	}
	if syls[0].Text != "hello" || !syls[0].EndsWithSpace {
		t.Fatalf("unexpected first syllable: %+v", syls[0])
	}
	if syls[1].Text != "world" {
		t.Fatalf("unexpected second syllable: %+v", syls[1])
	}
}

func TestGenerateUsesSquareThenAngleBrackets(t *testing.T) {
	data, err := Parse("[00:01.000]<00:01.000>hi <00:01.500>there\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(out, "[00:01.000]<00:01.000>hi <00:01.500>there") {
		t.Fatalf("unexpected output: %q", out)
	}
}
