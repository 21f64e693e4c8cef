package lyl

import (
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func TestParseBasic(t *testing.T) {
	data, err := Parse("[1000,2000]hello world\n[2000,3000]second line\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !data.IsLineTimedSource {
		t.Fatalf("expected IsLineTimedSource")
	}
	if len(data.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(data.Lines))
	}
	if data.Lines[0].LineText != "hello world" || data.Lines[0].StartMs != 1000 || data.Lines[0].EndMs != 2000 {
		t.Fatalf("unexpected first line: %+v", data.Lines[0])
	}
}

func TestParseInvalidTimestampsWarns(t *testing.T) {
	data, err := Parse("[2000,1000]backwards\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 0 {
		t.Fatalf("expected line to be dropped, got %+v", data.Lines)
	}
	if len(data.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", data.Warnings)
	}
}

func TestGenerate(t *testing.T) {
	lines := []ir.LyricLine{{StartMs: 1000, EndMs: 2000, LineText: "hi", HasLineText: true}}
	out, err := Generate(lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "[1000,2000]hi\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}
