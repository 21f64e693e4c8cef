package convert

import (
	"strings"
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func TestConvertSingleLyricLRCRoundTrip(t *testing.T) {
	input := ConversionInput{
		MainLyric: InputFile{
			Content: "[ar:Someone]\n[00:01.00]hello world\n[00:05.00]goodbye\n",
			Format:  ir.FormatLRC,
		},
		TargetFormat: ir.FormatLRC,
	}
	result, err := ConvertSingleLyric(input, ConversionOptions{})
	if err != nil {
		t.Fatalf("ConvertSingleLyric: %v", err)
	}
	if !strings.Contains(result.Output, "[ar:Someone]") {
		t.Fatalf("expected artist metadata carried through, got %q", result.Output)
	}
	if !strings.Contains(result.Output, "[00:01.000]hello world") {
		t.Fatalf("expected main line carried through, got %q", result.Output)
	}
}

func TestConvertSingleLyricMergesTranslation(t *testing.T) {
	input := ConversionInput{
		MainLyric: InputFile{
			Content: "[00:01.00]hello\n",
			Format:  ir.FormatLRC,
		},
		Translations: []InputFile{
			{Content: "[00:01.00]你好\n", Format: ir.FormatLRC, Language: "zh"},
		},
		TargetFormat: ir.FormatLRC,
	}
	result, err := ConvertSingleLyric(input, ConversionOptions{})
	if err != nil {
		t.Fatalf("ConvertSingleLyric: %v", err)
	}
	if !strings.Contains(result.Output, "你好") {
		t.Fatalf("expected translation folded into output, got %q", result.Output)
	}
}

func TestConvertSingleLyricUnknownFormatErrors(t *testing.T) {
	input := ConversionInput{
		MainLyric:    InputFile{Content: "x", Format: ir.LyricFormat("bogus")},
		TargetFormat: ir.FormatLRC,
	}
	if _, err := ConvertSingleLyric(input, ConversionOptions{}); err == nil {
		t.Fatalf("expected error for unknown source format")
	}
}

func TestConvertSingleLyricAppliesOffset(t *testing.T) {
	input := ConversionInput{
		MainLyric: InputFile{
			Content: "[00:01.00]hello\n",
			Format:  ir.FormatLRC,
		},
		TargetFormat: ir.FormatLRC,
	}
	result, err := ConvertSingleLyric(input, ConversionOptions{OffsetMs: 2000})
	if err != nil {
		t.Fatalf("ConvertSingleLyric: %v", err)
	}
	if !strings.Contains(result.Output, "[00:03.000]hello") {
		t.Fatalf("expected offset applied before generation, got %q", result.Output)
	}
}

func TestConvertSingleLyricNegativeOffsetClampsAtZero(t *testing.T) {
	input := ConversionInput{
		MainLyric: InputFile{
			Content: "[00:01.00]hello\n",
			Format:  ir.FormatLRC,
		},
		TargetFormat: ir.FormatLRC,
	}
	result, err := ConvertSingleLyric(input, ConversionOptions{OffsetMs: -5000})
	if err != nil {
		t.Fatalf("ConvertSingleLyric: %v", err)
	}
	if !strings.Contains(result.Output, "[00:00.000]hello") {
		t.Fatalf("expected negative offset clamped at zero, got %q", result.Output)
	}
}

func TestConvertSingleLyricUserOverrideWins(t *testing.T) {
	input := ConversionInput{
		MainLyric: InputFile{
			Content: "[ar:Original]\n[00:01.00]hello\n",
			Format:  ir.FormatLRC,
		},
		TargetFormat:          ir.FormatLRC,
		UserMetadataOverrides: map[string][]string{"artist": {"Overridden"}},
	}
	result, err := ConvertSingleLyric(input, ConversionOptions{})
	if err != nil {
		t.Fatalf("ConvertSingleLyric: %v", err)
	}
	if !strings.Contains(result.Output, "[ar:Overridden]") {
		t.Fatalf("expected override to win, got %q", result.Output)
	}
	if strings.Contains(result.Output, "Original") {
		t.Fatalf("expected original artist to be replaced, got %q", result.Output)
	}
}
