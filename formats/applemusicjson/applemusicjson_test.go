package applemusicjson

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/apoint123/lyricsforge/formats/ttml"
	"github.com/apoint123/lyricsforge/ir"
)

const sampleTTML = `<?xml version="1.0" encoding="utf-8"?>
<tt xmlns="http://www.w3.org/ns/ttml" xmlns:itunes="http://music.apple.com/lyric-ttml-internal">
<body><div><p begin="00:00:01.000" end="00:00:02.000">hello</p></div></body>
</tt>`

func TestParseUnwrapsEnvelope(t *testing.T) {
	raw, err := json.Marshal(envelope{ID: "12345", TTT: sampleTTML})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	data, err := Parse(string(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if data.SourceFormat != ir.FormatAppleMusicJSON {
		t.Fatalf("expected SourceFormat AppleMusicJSON, got %v", data.SourceFormat)
	}
	if got := data.RawMetadata["appleMusicId"]; len(got) != 1 || got[0] != "12345" {
		t.Fatalf("expected appleMusicId metadata, got %v", got)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
}

func TestParseMissingTTMLErrors(t *testing.T) {
	raw, _ := json.Marshal(envelope{ID: "1"})
	if _, err := Parse(string(raw)); err == nil {
		t.Fatalf("expected error for empty ttml body")
	}
}

func TestGenerateWrapsEnvelope(t *testing.T) {
	lines := []ir.LyricLine{{StartMs: 1000, EndMs: 2000, LineText: "hi", HasLineText: true,
		MainSyllables: []ir.LyricSyllable{{Text: "hi", StartMs: 1000, EndMs: 2000}}}}
	meta := ir.NewMetadataStore()
	meta.SetSingle(ir.KeyAppleMusicID, "99")
	out, err := Generate(lines, meta, ttml.GenerationOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `"id":"99"`) {
		t.Fatalf("expected id field in output, got %q", out)
	}
	if !strings.Contains(out, "<tt") {
		t.Fatalf("expected ttml body embedded, got %q", out)
	}
}
