// Package spl implements the Salt Player Lyrics format: `[mm:ss.cs]` line
// timestamps (centisecond precision) with an optional word-timed variant
// carrying inline `<mm:ss.cs>` markers, the same way enhanced LRC does.
package spl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

// DefaultLastLineDurationMs mirrors LRC's tail-duration convention.
const DefaultLastLineDurationMs = 10000

var (
	lineTimeRegex  = regexp.MustCompile(`^\[(\d{2,}):(\d{2})\.(\d{2})\](.*)$`)
	innerTimeRegex = regexp.MustCompile(`<(\d{2,}):(\d{2})\.(\d{2})>`)
)

func parseCentiTime(min, sec, cs string) (int64, bool) {
	m, e1 := strconv.ParseInt(min, 10, 64)
	s, e2 := strconv.ParseInt(sec, 10, 64)
	c, e3 := strconv.ParseInt(cs, 10, 64)
	if e1 != nil || e2 != nil || e3 != nil || s >= 60 {
		return 0, false
	}
	return (m*60+s)*1000 + c*10, true
}

// Parse reads SPL content into a ParsedSourceData.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatSPL}
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
			data.AddWarning(fmt.Sprintf("SPL parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		lineStart, ok := parseCentiTime(m[1], m[2], m[3])
		if !ok {
			data.AddWarning(fmt.Sprintf("SPL parse warning (line %d): invalid line timestamp.", lineNum))
			continue
		}
		rest := m[4]

		innerMatches := innerTimeRegex.FindAllStringSubmatchIndex(rest, -1)
		var syls []ir.LyricSyllable
		if len(innerMatches) == 0 {
			text := ir.NormalizeTextWhitespace(rest)
			if text != "" {
				syls = append(syls, ir.LyricSyllable{Text: text, StartMs: lineStart, EndMs: lineStart})
			}
		} else {
			startMs := lineStart
			for idx, loc := range innerMatches {
				mm := rest[loc[2]:loc[3]]
				ss := rest[loc[4]:loc[5]]
				cs := rest[loc[6]:loc[7]]
				ms, ok := parseCentiTime(mm, ss, cs)
				if !ok {
					data.AddWarning(fmt.Sprintf("SPL parse warning (line %d): invalid inline timestamp.", lineNum))
					continue
				}
				textStart := loc[1]
				textEnd := len(rest)
				if idx+1 < len(innerMatches) {
					textEnd = innerMatches[idx+1][0]
				}
				clean, endsSpace, ok := ir.ProcessSyllableText(rest[textStart:textEnd], syls)
				if ok {
					syls = append(syls, ir.LyricSyllable{Text: clean, StartMs: startMs, EndMs: ms, EndsWithSpace: endsSpace})
				}
				startMs = ms
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

// Generate renders lines as SPL text. Lines with more than one syllable
// get inline <mm:ss.cs> markers; single-syllable (line-timed) lines are
// emitted as plain text after the line timestamp.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var b strings.Builder
	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
	}
	for _, line := range lines {
		b.WriteString(formatCentiTag(line.StartMs, '[', ']'))
		if len(line.MainSyllables) > 1 {
			for _, syl := range line.MainSyllables {
				b.WriteString(formatCentiTag(syl.StartMs, '<', '>'))
				b.WriteString(syl.Text)
				if syl.EndsWithSpace {
					b.WriteByte(' ')
				}
			}
		} else {
			text := line.LineText
			if text == "" {
				text = ir.JoinSyllables(line.MainSyllables)
			}
			b.WriteString(text)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func formatCentiTag(ms int64, open, close byte) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	centi := (ms % 1000) / 10
	return fmt.Sprintf("%c%02d:%02d.%02d%c", open, minutes, seconds, centi, close)
}
