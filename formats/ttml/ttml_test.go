package ttml

import (
	"strings"
	"testing"
)

func TestParseLineTimed(t *testing.T) {
	src := `<tt xmlns="http://www.w3.org/ns/ttml"><body><div><p begin="00:00:05.000" end="00:00:07.000">Hello there</p></div></body></tt>`
	data, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(data.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(data.Lines))
	}
	l := data.Lines[0]
	if l.StartMs != 5000 || l.EndMs != 7000 {
		t.Fatalf("unexpected times: %+v", l)
	}
	if l.LineText != "Hello there" {
		t.Fatalf("unexpected text: %q", l.LineText)
	}
}

func TestParseBackgroundAndTranslation(t *testing.T) {
	src := `<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttm="http://www.w3.org/ns/ttml#metadata" xmlns:xml="http://www.w3.org/XML/1998/namespace"><body><div>` +
		`<p begin="00:00:01.000" end="00:00:04.000">` +
		`<span begin="00:00:01.000" end="00:00:02.000">Main</span>` +
		`<span ttm:role="x-bg" begin="00:00:02.500" end="00:00:03.500"><span begin="00:00:02.500" end="00:00:03.500">(bg)</span></span>` +
		`<span ttm:role="x-translation" xml:lang="zh-Hans">你好</span>` +
		`</p></div></body></tt>`
	data, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	line := data.Lines[0]
	if line.BackgroundSection == nil || len(line.BackgroundSection.Syllables) != 1 {
		t.Fatalf("expected one background syllable, got %+v", line.BackgroundSection)
	}
	if line.BackgroundSection.Syllables[0].Text != "bg" {
		t.Fatalf("expected parens stripped, got %q", line.BackgroundSection.Syllables[0].Text)
	}
	if len(line.Translations) != 1 || line.Translations[0].Lang != "zh-Hans" || line.Translations[0].Text != "你好" {
		t.Fatalf("unexpected translations: %+v", line.Translations)
	}
}

func TestParseBackgroundSectionKeepsNestedTranslationAndRoman(t *testing.T) {
	src := `<tt xmlns="http://www.w3.org/ns/ttml" xmlns:ttm="http://www.w3.org/ns/ttml#metadata" xmlns:xml="http://www.w3.org/XML/1998/namespace"><body><div>` +
		`<p begin="00:00:01.000" end="00:00:04.000">` +
		`<span begin="00:00:01.000" end="00:00:02.000">Main</span>` +
		`<span ttm:role="x-bg" begin="00:00:02.500" end="00:00:03.500">` +
		`<span begin="00:00:02.500" end="00:00:03.500">(bg)</span>` +
		`<span ttm:role="x-translation" xml:lang="zh-Hans">背景</span>` +
		`<span ttm:role="x-roman" xml:lang="ja-Latn">bg-roman</span>` +
		`</span>` +
		`</p></div></body></tt>`
	data, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bg := data.Lines[0].BackgroundSection
	if bg == nil {
		t.Fatalf("expected a background section")
	}
	if len(bg.Translations) != 1 || bg.Translations[0].Lang != "zh-Hans" || bg.Translations[0].Text != "背景" {
		t.Fatalf("expected nested translation to land on background section, got %+v", bg.Translations)
	}
	if len(bg.Romanizations) != 1 || bg.Romanizations[0].Lang != "ja-Latn" || bg.Romanizations[0].Text != "bg-roman" {
		t.Fatalf("expected nested romanization to land on background section, got %+v", bg.Romanizations)
	}
}

func TestFormattingAwareWhitespace(t *testing.T) {
	pretty := "<tt xmlns=\"http://www.w3.org/ns/ttml\"><body><div>\n  <p begin=\"0s\" end=\"2s\">\n    <span begin=\"0s\" end=\"1s\">A</span>\n    <span begin=\"1s\" end=\"2s\">B</span>\n  </p>\n</div></body></tt>"
	data, err := Parse(pretty)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if data.Lines[0].MainSyllables[0].EndsWithSpace {
		t.Fatalf("pretty-printed indentation should not synthesize a space")
	}

	singleLine := `<tt xmlns="http://www.w3.org/ns/ttml"><body><div><p begin="0s" end="2s"><span begin="0s" end="1s">A</span> <span begin="1s" end="2s">B</span></p></div></body></tt>`
	data2, err := Parse(singleLine)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !data2.Lines[0].MainSyllables[0].EndsWithSpace {
		t.Fatalf("single-line literal space between spans should be preserved")
	}
}

func TestGenerateWordTiming(t *testing.T) {
	data, err := Parse(`<tt xmlns="http://www.w3.org/ns/ttml"><body><div><p begin="0s" end="2s"><span begin="0s" end="1s">A</span><span begin="1s" end="2s">B</span></p></div></body></tt>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	out, err := Generate(data.Lines, nil, GenerationOptions{TimingMode: TimingWord, UseAppleFormatRules: true})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !strings.Contains(out, `ttm:agent="v1"`) {
		t.Fatalf("expected default agent in output: %s", out)
	}
	if !strings.Contains(out, `itunes:key=`) {
		t.Fatalf("expected itunes:key in apple-format output: %s", out)
	}
}
