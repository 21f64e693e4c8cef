package qrc

import (
	"strings"
	"testing"
)

func TestParsePromotesParenthesizedLineToBackground(t *testing.T) {
	content := `<?xml version="1.0" encoding="utf-8"?>
<QrcInfos><QrcInfo LyricContent="[0,1000]hello(0,1000)
[1000,1000](bg)(1000,1000)
"/></QrcInfos>`
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected parenthesized line folded into background, got %d lines", len(data.Lines))
	}
	if data.Lines[0].BackgroundSection == nil {
		t.Fatalf("expected background section")
	}
	if len(data.Lines[0].BackgroundSection.Syllables) != 1 || data.Lines[0].BackgroundSection.Syllables[0].Text != "bg" {
		t.Fatalf("unexpected background syllables: %+v", data.Lines[0].BackgroundSection.Syllables)
	}
}

func TestParseMissingLyricContentErrors(t *testing.T) {
	if _, err := Parse(`<QrcInfos><QrcInfo/></QrcInfos>`); err == nil {
		t.Fatalf("expected error for missing LyricContent")
	}
}

func TestGenerateWrapsBackgroundInParens(t *testing.T) {
	content := `<QrcInfos><QrcInfo LyricContent="[0,1000]hi(0,1000)
[1000,1000](bg)(1000,1000)
"/></QrcInfos>`
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(data.Lines, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"LyricContent=", "hi(0,1000)", "(bg)(1000,1000)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}
