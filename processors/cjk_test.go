package processors

import (
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func TestDeduceLangTag(t *testing.T) {
	cases := []struct {
		config ChineseConversionConfig
		want   string
	}{
		{ConfigS2T, "zh-Hant"},
		{ConfigT2S, "zh-Hans"},
		{ConfigTW2SP, "zh-Hans"},
		{ConfigS2TWP, "zh-Hant-TW"},
		{ConfigS2HK, "zh-Hant-HK"},
	}
	for _, c := range cases {
		got, ok := c.config.DeduceLangTag()
		if !ok || got != c.want {
			t.Fatalf("DeduceLangTag(%s) = %q, %v; want %q", c.config, got, ok, c.want)
		}
	}
	if _, ok := ChineseConversionConfig("bogus").DeduceLangTag(); ok {
		t.Fatalf("expected unknown config to fail deduction")
	}
}

func TestPinyinIsSameRejectsLengthMismatch(t *testing.T) {
	if pinyinIsSame("你好", "你好吗") {
		t.Fatalf("expected length mismatch to reject")
	}
}

func TestPinyinIsSameAcceptsIdenticalText(t *testing.T) {
	if !pinyinIsSame("你好", "你好") {
		t.Fatalf("expected identical text to match")
	}
}

func TestWordSpansSplitsOnSpaceBoundary(t *testing.T) {
	syls := []ir.LyricSyllable{
		syl("hel", false), syl("lo", true), syl("world", false),
	}
	spans := wordSpans(syls)
	if len(spans) != 2 {
		t.Fatalf("expected 2 word spans, got %d: %+v", len(spans), spans)
	}
	if spans[0] != (wordSpan{0, 2}) || spans[1] != (wordSpan{2, 3}) {
		t.Fatalf("unexpected spans: %+v", spans)
	}
}

func TestConvertChineseNoopWhenConfigEmpty(t *testing.T) {
	lines := []ir.LyricLine{{HasLineText: true, LineText: "你好"}}
	ConvertChinese(lines, ChineseConversionOptions{})
	if len(lines[0].Translations) != 0 {
		t.Fatalf("expected no translations added when config is empty")
	}
}
