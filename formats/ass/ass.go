// Package ass implements a karaoke-timed Advanced SubStation Alpha (ASS)
// dialect: `Dialogue:` lines carrying `{\k<centiseconds>}` tags per
// syllable, with the Style/Name fields pressed into service to carry
// background/translation role and agent.
package ass

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

const (
	styleDefault      = "Default"
	styleBackground   = "Background"
	styleTranslation  = "Translation"
	styleRomanization = "Romanization"
)

var (
	dialogueRegex = regexp.MustCompile(`^Dialogue:\s*(.*)$`)
	karaokeRegex  = regexp.MustCompile(`\{\\[kK][fo]?(\d+)\}([^{]*)`)
)

// Parse reads ASS content into a ParsedSourceData. Only the [Events]
// section's Dialogue lines are interpreted; [Script Info] and
// [V4+ Styles] are carried through as raw metadata/comments, since this
// dialect uses them purely as a container, not for visual styling.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatASS}
	rawMetadata := make(map[string][]string)
	var lines []ir.LyricLine
	byKey := make(map[string]int) // "start:end" -> index of main line in lines, for attaching translations

	section := ""
	for i, raw := range strings.Split(content, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			section = trimmed
			continue
		}
		if section != "[Events]" {
			if m := regexp.MustCompile(`^([A-Za-z ]+):\s*(.*)$`).FindStringSubmatch(trimmed); m != nil {
				rawMetadata[strings.TrimSpace(m[1])] = append(rawMetadata[strings.TrimSpace(m[1])], strings.TrimSpace(m[2]))
			}
			continue
		}
		if strings.HasPrefix(trimmed, "Format:") || strings.HasPrefix(trimmed, "Comment:") {
			continue
		}
		m := dialogueRegex.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		fields := strings.SplitN(m[1], ",", 10)
		if len(fields) < 10 {
			data.AddWarning(fmt.Sprintf("ASS parse warning (line %d): Dialogue has too few fields.", lineNum))
			continue
		}
		startMs, ok1 := parseAssTime(strings.TrimSpace(fields[1]))
		endMs, ok2 := parseAssTime(strings.TrimSpace(fields[2]))
		style := strings.TrimSpace(fields[3])
		name := strings.TrimSpace(fields[4])
		text := fields[9]
		if !ok1 || !ok2 {
			data.AddWarning(fmt.Sprintf("ASS parse warning (line %d): invalid Start/End time.", lineNum))
			continue
		}

		syls, plain := parseKaraoke(text, startMs)

		switch style {
		case styleTranslation, styleRomanization:
			key := fmt.Sprintf("%d:%d", startMs, endMs)
			if idx, ok := byKey[key]; ok {
				target := &lines[idx]
				if style == styleTranslation {
					target.Translations = append(target.Translations, ir.TranslationEntry{Text: plain, Lang: name})
				} else {
					target.Romanizations = append(target.Romanizations, ir.RomanizationEntry{Text: plain, Lang: name})
				}
				continue
			}
			data.AddWarning(fmt.Sprintf("ASS parse warning (line %d): %s line has no matching main line at %d-%d.", lineNum, style, startMs, endMs))
			continue
		case styleBackground:
			if len(lines) == 0 {
				data.AddWarning(fmt.Sprintf("ASS parse warning (line %d): Background line has no preceding main line.", lineNum))
				continue
			}
			prev := &lines[len(lines)-1]
			prev.BackgroundSection = &ir.BackgroundSection{StartMs: startMs, EndMs: endMs, Syllables: syls}
			continue
		}

		line := ir.LyricLine{
			StartMs:       startMs,
			EndMs:         endMs,
			Agent:         name,
			MainSyllables: syls,
			LineText:      plain,
			HasLineText:   true,
		}
		lines = append(lines, line)
		byKey[fmt.Sprintf("%d:%d", startMs, endMs)] = len(lines) - 1
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

func parseKaraoke(text string, lineStart int64) ([]ir.LyricSyllable, string) {
	matches := karaokeRegex.FindAllStringSubmatch(text, -1)
	if matches == nil {
		plain := ir.NormalizeTextWhitespace(stripAssOverride(text))
		if plain == "" {
			return nil, ""
		}
		return []ir.LyricSyllable{{Text: plain, StartMs: lineStart, EndMs: lineStart}}, plain
	}
	var syls []ir.LyricSyllable
	cursor := lineStart
	for _, m := range matches {
		cs, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		durMs := cs * 10
		clean, endsSpace, ok := ir.ProcessSyllableText(m[2], syls)
		if !ok {
			cursor += durMs
			continue
		}
		syls = append(syls, ir.LyricSyllable{
			Text: clean, StartMs: cursor, EndMs: cursor + durMs,
			DurationMs: &durMs, EndsWithSpace: endsSpace,
		})
		cursor += durMs
	}
	return syls, ir.JoinSyllables(syls)
}

func stripAssOverride(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func parseAssTime(s string) (int64, bool) {
	m := regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})\.(\d{2})$`).FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, e1 := strconv.ParseInt(m[1], 10, 64)
	mi, e2 := strconv.ParseInt(m[2], 10, 64)
	se, e3 := strconv.ParseInt(m[3], 10, 64)
	cs, e4 := strconv.ParseInt(m[4], 10, 64)
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil {
		return 0, false
	}
	return ((h*60+mi)*60+se)*1000 + cs*10, true
}

func formatAssTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	mi := (ms % 3600000) / 60000
	se := (ms % 60000) / 1000
	cs := (ms % 1000) / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, mi, se, cs)
}

// Generate renders lines as an ASS script with one Dialogue line per main
// line (karaoke-tagged), plus Background/Translation/Romanization
// companion lines sharing the main line's timing.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	if metadata != nil {
		if title, ok := metadata.GetSingleValue(ir.KeyTitle); ok {
			fmt.Fprintf(&b, "Title: %s\n", title)
		}
		if artist, ok := metadata.GetSingleValue(ir.KeyArtist); ok {
			fmt.Fprintf(&b, "; Artist: %s\n", artist)
		}
	}
	b.WriteString("ScriptType: v4.00+\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: %s,Arial,40,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,10,1\n", styleDefault)
	fmt.Fprintf(&b, "Style: %s,Arial,32,&H00AAAAAA,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,40,1\n", styleBackground)
	fmt.Fprintf(&b, "Style: %s,Arial,32,&H00CCCCCC,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,0,2,10,10,60,1\n\n", styleTranslation)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginE, Effect, Text\n")

	for _, line := range lines {
		writeDialogue(&b, line.StartMs, line.EndMs, styleDefault, line.Agent, karaokeText(line.MainSyllables, line.LineText))
		for _, tr := range line.Translations {
			writeDialogue(&b, line.StartMs, line.EndMs, styleTranslation, tr.Lang, tr.Text)
		}
		for _, ro := range line.Romanizations {
			writeDialogue(&b, line.StartMs, line.EndMs, styleRomanization, ro.Lang, ro.Text)
		}
		if bg := line.BackgroundSection; bg != nil {
			writeDialogue(&b, bg.StartMs, bg.EndMs, styleBackground, "", karaokeText(bg.Syllables, ""))
		}
	}
	return b.String(), nil
}

func karaokeText(syls []ir.LyricSyllable, fallback string) string {
	if len(syls) == 0 {
		return fallback
	}
	var b strings.Builder
	for _, syl := range syls {
		dur := syl.EndMs - syl.StartMs
		if syl.DurationMs != nil {
			dur = *syl.DurationMs
		}
		fmt.Fprintf(&b, "{\\k%d}%s", dur/10, syl.Text)
		if syl.EndsWithSpace {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func writeDialogue(b *strings.Builder, start, end int64, style, name, text string) {
	fmt.Fprintf(b, "Dialogue: 0,%s,%s,%s,%s,0,0,0,,%s\n",
		formatAssTime(start), formatAssTime(end), style, name, text)
}
