package processors

import (
	"testing"

	"github.com/apoint123/lyricsforge/ir"
)

func syl(text string, endsWithSpace bool) ir.LyricSyllable {
	return ir.LyricSyllable{Text: text, EndsWithSpace: endsWithSpace}
}

func TestRecognizeAgentsInlineStripsPrefix(t *testing.T) {
	lines := []ir.LyricLine{
		{MainSyllables: []ir.LyricSyllable{syl("v1", false), syl(":", false), syl("hello", false)}},
	}
	out := RecognizeAgents(lines)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	if out[0].Agent != "v1" {
		t.Fatalf("expected agent v1, got %q", out[0].Agent)
	}
	if got := ir.JoinSyllables(out[0].MainSyllables); got != "hello" {
		t.Fatalf("expected remaining syllables to join to %q, got %q", "hello", got)
	}
}

func TestRecognizeAgentsInlineSimple(t *testing.T) {
	lines := []ir.LyricLine{
		{HasLineText: true, LineText: "v1: hello there"},
	}
	out := RecognizeAgents(lines)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	if out[0].Agent != "v1" {
		t.Fatalf("expected agent v1, got %q", out[0].Agent)
	}
	if out[0].LineText != "hello there" {
		t.Fatalf("expected stripped text, got %q", out[0].LineText)
	}
}

func TestRecognizeAgentsBlockModeSetsCurrentAgent(t *testing.T) {
	lines := []ir.LyricLine{
		{HasLineText: true, LineText: "v1:"},
		{HasLineText: true, LineText: "hello"},
		{HasLineText: true, LineText: "world"},
	}
	out := RecognizeAgents(lines)
	if len(out) != 2 {
		t.Fatalf("expected block line removed, got %d lines", len(out))
	}
	if out[0].Agent != "v1" || out[1].Agent != "v1" {
		t.Fatalf("expected both lines to inherit v1, got %q and %q", out[0].Agent, out[1].Agent)
	}
}

func TestRecognizeAgentsSyllableModeStripsAcrossSyllables(t *testing.T) {
	lines := []ir.LyricLine{
		{MainSyllables: []ir.LyricSyllable{
			syl("v1", false), syl(":", true), syl("hel", false), syl("lo", false),
		}},
	}
	out := RecognizeAgents(lines)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	if out[0].Agent != "v1" {
		t.Fatalf("expected agent v1, got %q", out[0].Agent)
	}
	got := ir.JoinSyllables(out[0].MainSyllables)
	if got != "hello" {
		t.Fatalf("expected remaining text %q, got %q", "hello", got)
	}
}

func TestRecognizeAgentsFullWidthParens(t *testing.T) {
	lines := []ir.LyricLine{
		{HasLineText: true, LineText: "（合）：齐唱部分"},
	}
	out := RecognizeAgents(lines)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	if out[0].Agent != "合" {
		t.Fatalf("expected agent 合, got %q", out[0].Agent)
	}
	if out[0].LineText != "齐唱部分" {
		t.Fatalf("expected stripped text, got %q", out[0].LineText)
	}
}

func TestRecognizeAgentsNoMatchLeavesLineUnchanged(t *testing.T) {
	lines := []ir.LyricLine{
		{HasLineText: true, LineText: "no agent prefix here"},
	}
	out := RecognizeAgents(lines)
	if len(out) != 1 {
		t.Fatalf("expected 1 line, got %d", len(out))
	}
	if out[0].Agent != "" {
		t.Fatalf("expected no agent, got %q", out[0].Agent)
	}
	if out[0].LineText != "no agent prefix here" {
		t.Fatalf("expected text unchanged, got %q", out[0].LineText)
	}
}
