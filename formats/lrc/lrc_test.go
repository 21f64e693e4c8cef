package lrc

import "testing"

func TestParseSimpleLRC(t *testing.T) {
	content := "\n[00:10.00]Line 1\n[00:12.50]Line 2\n"
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(data.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(data.Lines))
	}
	l1, l2 := data.Lines[0], data.Lines[1]
	if l1.StartMs != 10000 || l1.EndMs != 12500 || l1.LineText != "Line 1" {
		t.Fatalf("line1 mismatch: %+v", l1)
	}
	if l2.StartMs != 12500 || l2.EndMs != 12500+DefaultLastLineDurationMs || l2.LineText != "Line 2" {
		t.Fatalf("line2 mismatch: %+v", l2)
	}
}

func TestParseHandlesPauseLine(t *testing.T) {
	content := "\n[01:31.460]第一行\n[01:35.840]\n[01:54.660]第二行\n"
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(data.Lines) != 2 {
		t.Fatalf("expected 2 valid lines, got %d", len(data.Lines))
	}
	l1 := data.Lines[0]
	if l1.StartMs != 91460 || l1.EndMs != 95840 || l1.LineText != "第一行" {
		t.Fatalf("line1 mismatch: %+v", l1)
	}
	if data.Lines[1].StartMs != 114660 {
		t.Fatalf("line2 start mismatch: %+v", data.Lines[1])
	}
}

func TestParseBilingual(t *testing.T) {
	content := "\n[00:20.00]Hello world\n[00:20.00]你好世界\n[00:22.00]Next line\n"
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(data.Lines) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(data.Lines))
	}
	l1 := data.Lines[0]
	if l1.StartMs != 20000 || l1.LineText != "Hello world" {
		t.Fatalf("line1 mismatch: %+v", l1)
	}
	if len(l1.Translations) != 1 || l1.Translations[0].Text != "你好世界" {
		t.Fatalf("expected 1 translation, got %+v", l1.Translations)
	}
	if data.Lines[1].StartMs != 22000 {
		t.Fatalf("line2 start mismatch: %+v", data.Lines[1])
	}
}

func TestParseOutOfOrderAndMultiTimestamp(t *testing.T) {
	content := "\n[00:30.00]Chorus line\n[00:10.00][00:50.00]Verse line\n[00:20.00]Another line\n"
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(data.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(data.Lines))
	}
	want := []struct {
		startMs int64
		text    string
	}{
		{10000, "Verse line"},
		{20000, "Another line"},
		{30000, "Chorus line"},
		{50000, "Verse line"},
	}
	for i, w := range want {
		if data.Lines[i].StartMs != w.startMs || data.Lines[i].LineText != w.text {
			t.Fatalf("line %d mismatch: got %+v, want %+v", i, data.Lines[i], w)
		}
	}
}

func TestParseWhitespaceNormalizationAndMetadata(t *testing.T) {
	content := "\n[ti:  My Song Title  ]\n[ar:The Artist   ]\n[00:05.123]   leading and trailing spaces\n[00:08.45]multiple   internal    spaces\n"
	data, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := data.RawMetadata["ti"]; len(got) != 1 || got[0] != "My Song Title" {
		t.Fatalf("ti mismatch: %+v", got)
	}
	if got := data.RawMetadata["ar"]; len(got) != 1 || got[0] != "The Artist" {
		t.Fatalf("ar mismatch: %+v", got)
	}
	if data.Lines[0].LineText != "leading and trailing spaces" {
		t.Fatalf("line0 text mismatch: %q", data.Lines[0].LineText)
	}
	if data.Lines[1].LineText != "multiple internal spaces" {
		t.Fatalf("line1 text mismatch: %q", data.Lines[1].LineText)
	}
}

func TestFormatTimeMs(t *testing.T) {
	if got := FormatTimeMs(91460); got != "[01:31.460]" {
		t.Fatalf("got %q", got)
	}
	if got := FormatTimeMs(0); got != "[00:00.000]" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerateRoundTripsSimpleLines(t *testing.T) {
	data, err := Parse("[00:10.00]Line 1\n[00:12.50]Line 2\n")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	out, err := Generate(data.Lines, nil, GenerationOptions{EndTimeMode: EndTimeNever})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	want := "[00:10.000]Line 1\n[00:12.500]Line 2\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
