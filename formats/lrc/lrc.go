// Package lrc implements parsing and generation for plain (line-timed) LRC
// lyric files, including the bilingual same-timestamp folding convention.
package lrc

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

// DefaultLastLineDurationMs is the synthetic duration given to the final
// line of a file, which has no following timestamp to derive an end from.
const DefaultLastLineDurationMs = 10000

var (
	lineRegex      = regexp.MustCompile(`^((?:\[\d{2,}:\d{2}[.:]\d{2,3}\])+)(.*)$`)
	timestampRegex = regexp.MustCompile(`\[(\d{2,}):(\d{2})[.:](\d{2,3})\]`)
)

type tempEntry struct {
	timestampMs int64
	text        string
	lineNum     int
}

// Parse reads plain LRC content into a ParsedSourceData. Out-of-order
// timestamps are sorted; lines sharing a timestamp with the line that
// follows them are folded together as main line + translations.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatLRC, IsLineTimedSource: true}
	rawMetadata := make(map[string][]string)

	var entries []tempEntry

	for i, raw := range strings.Split(content, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if ir.ParseAndStoreMetadataTag(trimmed, rawMetadata) {
			continue
		}

		m := lineRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("LRC parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		timestampsPart := m[1]
		textPart := ir.NormalizeTextWhitespace(m[2])

		for _, ts := range timestampRegex.FindAllStringSubmatch(timestampsPart, -1) {
			minutes, errMin := strconv.ParseInt(ts[1], 10, 64)
			seconds, errSec := strconv.ParseInt(ts[2], 10, 64)
			fraction := ts[3]

			var ms int64
			var errFrac error
			switch len(fraction) {
			case 2:
				var f int64
				f, errFrac = strconv.ParseInt(fraction, 10, 64)
				ms = f * 10
			case 3:
				ms, errFrac = strconv.ParseInt(fraction, 10, 64)
			default:
				errFrac = fmt.Errorf("invalid fraction length %q", fraction)
			}

			if errMin != nil || errSec != nil || errFrac != nil {
				data.AddWarning(fmt.Sprintf("LRC parse warning (line %d): could not parse timestamp part %q.", lineNum, ts[0]))
				continue
			}
			if seconds >= 60 {
				data.AddWarning(fmt.Sprintf("LRC parse warning (line %d): invalid timestamp seconds %q.", lineNum, ts[2]))
				continue
			}
			totalMs := (minutes*60+seconds)*1000 + ms
			entries = append(entries, tempEntry{timestampMs: totalMs, text: textPart, lineNum: lineNum})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].timestampMs < entries[j].timestampMs })

	var lines []ir.LyricLine
	i := 0
	for i < len(entries) {
		if entries[i].text == "" {
			i++
			continue
		}
		current := entries[i]
		var translations []ir.TranslationEntry

		next := i + 1
		for next < len(entries) && entries[next].timestampMs == current.timestampMs {
			if entries[next].text != "" {
				translations = append(translations, ir.TranslationEntry{Text: entries[next].text})
			}
			next++
		}

		startMs := current.timestampMs
		endMs := startMs + DefaultLastLineDurationMs
		if next < len(entries) {
			endMs = entries[next].timestampMs
			if endMs < startMs+1 {
				endMs = startMs + 1
			}
		}
		duration := endMs - startMs

		lines = append(lines, ir.LyricLine{
			StartMs:     startMs,
			EndMs:       endMs,
			LineText:    current.text,
			HasLineText: true,
			MainSyllables: []ir.LyricSyllable{{
				Text:       current.text,
				StartMs:    startMs,
				EndMs:      endMs,
				DurationMs: &duration,
			}},
			Translations: translations,
		})

		i = next
	}

	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

// EndTimeMode selects when a trailing end-of-line timestamp is emitted.
type EndTimeMode int

const (
	EndTimeNever EndTimeMode = iota
	EndTimeAlways
	EndTimeOnLongPause
)

// GenerationOptions controls Generate's output shape.
type GenerationOptions struct {
	EndTimeMode        EndTimeMode
	LongPauseThreshold int64 // used when EndTimeMode == EndTimeOnLongPause
}

// Generate renders lines back to plain LRC text, with an optional
// metadata header. Each translation is written as an extra line carrying
// its main line's timestamp, the bilingual shape Parse folds back into
// Translations. Lines are expected to already have flat-shape content
// (see ir.LyricLine.EnsureFlat).
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore, opts GenerationOptions) (string, error) {
	var b strings.Builder

	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
	}

	for i, line := range lines {
		text := strings.TrimSpace(line.LineText)
		if text == "" {
			text = ir.JoinSyllables(line.MainSyllables)
		}
		if text != "" {
			fmt.Fprintf(&b, "%s%s\n", FormatTimeMs(line.StartMs), text)
			for _, tr := range line.Translations {
				if t := strings.TrimSpace(tr.Text); t != "" {
					fmt.Fprintf(&b, "%s%s\n", FormatTimeMs(line.StartMs), t)
				}
			}
		}

		if line.EndMs == 0 {
			continue
		}
		var nextStart int64 = -1
		if i+1 < len(lines) {
			nextStart = lines[i+1].StartMs
		}
		switch opts.EndTimeMode {
		case EndTimeAlways:
			fmt.Fprintf(&b, "%s\n", FormatTimeMs(line.EndMs))
		case EndTimeOnLongPause:
			if nextStart < 0 || nextStart-line.EndMs > opts.LongPauseThreshold {
				fmt.Fprintf(&b, "%s\n", FormatTimeMs(line.EndMs))
			}
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

// FormatTimeMs renders a millisecond timestamp as an LRC `[mm:ss.xxx]` tag.
func FormatTimeMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("[%02d:%02d.%03d]", minutes, seconds, millis)
}
