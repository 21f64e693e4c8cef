package krc

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestParseOffsetsRelativeToLineStart(t *testing.T) {
	data, err := Parse("[1000,2000]<0,500,0>hello<500,500,0>world\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
	syls := data.Lines[0].MainSyllables
	if len(syls) != 2 {
		t.Fatalf("expected 2 syllables, got %d", len(syls))
	}
	if syls[0].StartMs != 1000 || syls[0].EndMs != 1500 {
		t.Fatalf("unexpected first syllable timing: %+v", syls[0])
	}
	if syls[1].StartMs != 1500 || syls[1].EndMs != 2000 {
		t.Fatalf("unexpected second syllable timing: %+v", syls[1])
	}
}

func TestParseEmbeddedLanguageBlock(t *testing.T) {
	block := krcLanguageBlock{Content: []struct {
		Type         int        `json:"type"`
		LyricContent [][]string `json:"lyricContent"`
	}{{Type: 1, LyricContent: [][]string{{"你好"}}}}}
	raw, err := json.Marshal(block)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b64 := base64.StdEncoding.EncodeToString(raw)
	content := "[language:" + b64 + "]\n[0,1000]<0,1000,0>hi\n"

	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines[0].Translations) != 1 || data.Lines[0].Translations[0].Text != "你好" {
		t.Fatalf("expected embedded translation, got %+v", data.Lines[0].Translations)
	}
}

func TestGenerateRendersRelativeOffsets(t *testing.T) {
	data, err := Parse("[1000,1000]<0,1000,0>hi\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "[1000,1000]<0,1000,0>hi\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}
