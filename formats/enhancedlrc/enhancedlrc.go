// Package enhancedlrc implements the word-timed LRC variant: a line
// timestamp followed by inline <mm:ss.xxx> markers before each syllable.
package enhancedlrc

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

// DefaultLastLineDurationMs mirrors LRC's tail-duration convention but at
// the shorter 5s some upstream enhanced-LRC exporters use (spec.md §9
// Open Question: keep the two format defaults distinct rather than
// unifying them).
const DefaultLastLineDurationMs = 5000

var (
	lineTimeRegex  = regexp.MustCompile(`^\[(\d{2,}):(\d{2})[.:](\d{2,3})\](.*)$`)
	innerTimeRegex = regexp.MustCompile(`<(\d{2,}):(\d{2})[.:](\d{2,3})>`)
)

func parseTimeParts(min, sec, frac string) (int64, bool) {
	m, e1 := strconv.ParseInt(min, 10, 64)
	s, e2 := strconv.ParseInt(sec, 10, 64)
	if e1 != nil || e2 != nil || s >= 60 {
		return 0, false
	}
	var ms int64
	var e3 error
	switch len(frac) {
	case 2:
		var f int64
		f, e3 = strconv.ParseInt(frac, 10, 64)
		ms = f * 10
	case 3:
		ms, e3 = strconv.ParseInt(frac, 10, 64)
	default:
		return 0, false
	}
	if e3 != nil {
		return 0, false
	}
	return (m*60+s)*1000 + ms, true
}

// Parse reads enhanced-LRC content: one leading line timestamp, then
// <mm:ss.xxx>text runs for each syllable.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatEnhancedLRC}
	rawMetadata := make(map[string][]string)
	var lines []ir.LyricLine

	for i, raw := range strings.Split(content, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if ir.ParseAndStoreMetadataTag(trimmed, rawMetadata) {
			continue
		}

		m := lineTimeRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("enhanced-LRC parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		lineStart, ok := parseTimeParts(m[1], m[2], m[3])
		if !ok {
			data.AddWarning(fmt.Sprintf("enhanced-LRC parse warning (line %d): invalid line timestamp.", lineNum))
			continue
		}
		rest := m[4]

		type marker struct {
			ms  int64
			pos int
		}
		var markers []marker
		for _, loc := range innerTimeRegex.FindAllStringSubmatchIndex(rest, -1) {
			sub := rest[loc[0]:loc[1]]
			mm := innerTimeRegex.FindStringSubmatch(sub)
			ms, ok := parseTimeParts(mm[1], mm[2], mm[3])
			if !ok {
				data.AddWarning(fmt.Sprintf("enhanced-LRC parse warning (line %d): invalid inline timestamp %q.", lineNum, sub))
				continue
			}
			markers = append(markers, marker{ms: ms, pos: loc[1]})
		}

		var syls []ir.LyricSyllable
		if len(markers) == 0 {
			text := ir.NormalizeTextWhitespace(rest)
			if text != "" {
				syls = append(syls, ir.LyricSyllable{Text: text, StartMs: lineStart, EndMs: lineStart})
			}
		} else {
			for idx, mk := range markers {
				textStart := mk.pos
				var textEnd int
				endMs := mk.ms
				if idx+1 < len(markers) {
					endMs = markers[idx+1].ms
					// find the start of the next marker's '<' in rest
					next := innerTimeRegex.FindAllStringIndex(rest[textStart:], 1)
					if len(next) == 0 {
						textEnd = len(rest)
					} else {
						textEnd = textStart + next[0][0]
					}
				} else {
					textEnd = len(rest)
				}
				raw := rest[textStart:textEnd]
				clean, endsSpace, ok := ir.ProcessSyllableText(raw, syls)
				if ok {
					syls = append(syls, ir.LyricSyllable{Text: clean, StartMs: mk.ms, EndMs: endMs, EndsWithSpace: endsSpace})
				}
			}
		}

		endMs := lineStart
		if len(syls) > 0 {
			endMs = syls[len(syls)-1].EndMs
		}
		lines = append(lines, ir.LyricLine{
			StartMs:       lineStart,
			EndMs:         endMs,
			MainSyllables: syls,
			LineText:      ir.JoinSyllables(syls),
			HasLineText:   true,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	for i := range lines {
		if i+1 < len(lines) && lines[i].EndMs < lines[i].StartMs+1 {
			lines[i].EndMs = lines[i+1].StartMs
		}
	}
	if n := len(lines); n > 0 && lines[n-1].EndMs <= lines[n-1].StartMs {
		lines[n-1].EndMs = lines[n-1].StartMs + DefaultLastLineDurationMs
	}

	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

// Generate renders lines as enhanced LRC: one [mm:ss.xxx] line marker
// followed by an inline <mm:ss.xxx> marker before each syllable.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var b strings.Builder
	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
	}
	for _, line := range lines {
		b.WriteString(formatTimeTag(line.StartMs, '[', ']'))
		for _, syl := range line.MainSyllables {
			b.WriteString(formatTimeTag(syl.StartMs, '<', '>'))
			b.WriteString(syl.Text)
			if syl.EndsWithSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func formatTimeTag(ms int64, open, close byte) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%c%02d:%02d.%03d%c", open, minutes, seconds, millis, close)
}
