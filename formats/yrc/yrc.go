// Package yrc implements the YRC karaoke format: `[start,duration]`
// line headers followed by `(start,duration,0)text` syllable runs with
// absolute timestamps, interspersed with whole-line JSON metadata
// records (e.g. a `{"c":[...]}` info line some exporters prepend).
package yrc

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

var (
	lineHeaderRegex = regexp.MustCompile(`^\[(\d+),(\d+)\](.*)$`)
	syllableRegex   = regexp.MustCompile(`\((\d+),(\d+),(\d+)\)([^(]*)`)
)

// Parse reads YRC content into a ParsedSourceData.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatYRC}
	rawMetadata := make(map[string][]string)
	var lines []ir.LyricLine

	for i, raw := range strings.Split(content, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if looksLikeJSON(trimmed) {
			rawMetadata["json"] = append(rawMetadata["json"], trimmed)
			continue
		}
		if ir.ParseAndStoreMetadataTag(trimmed, rawMetadata) {
			continue
		}
		m := lineHeaderRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("YRC parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		start, errS := strconv.ParseInt(m[1], 10, 64)
		dur, errD := strconv.ParseInt(m[2], 10, 64)
		if errS != nil || errD != nil {
			data.AddWarning(fmt.Sprintf("YRC parse warning (line %d): invalid line timing.", lineNum))
			continue
		}

		var syls []ir.LyricSyllable
		for _, sm := range syllableRegex.FindAllStringSubmatch(m[3], -1) {
			sylStart, e1 := strconv.ParseInt(sm[1], 10, 64)
			sylDur, e2 := strconv.ParseInt(sm[2], 10, 64)
			if e1 != nil || e2 != nil {
				data.AddWarning(fmt.Sprintf("YRC parse warning (line %d): invalid syllable timing %q.", lineNum, sm[0]))
				continue
			}
			clean, endsSpace, ok := ir.ProcessSyllableText(sm[4], syls)
			if !ok {
				continue
			}
			syls = append(syls, ir.LyricSyllable{
				Text: clean, StartMs: sylStart, EndMs: sylStart + sylDur,
				DurationMs: &sylDur, EndsWithSpace: endsSpace,
			})
		}

		lines = append(lines, ir.LyricLine{
			StartMs:       start,
			EndMs:         start + dur,
			MainSyllables: syls,
			LineText:      ir.JoinSyllables(syls),
			HasLineText:   true,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

func looksLikeJSON(s string) bool {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return false
	}
	var v map[string]any
	return json.Unmarshal([]byte(s), &v) == nil
}

// Generate renders lines as YRC text.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var b strings.Builder
	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
	}
	for _, line := range lines {
		fmt.Fprintf(&b, "[%d,%d]", line.StartMs, line.EndMs-line.StartMs)
		for _, syl := range line.MainSyllables {
			dur := syl.EndMs - syl.StartMs
			if syl.DurationMs != nil {
				dur = *syl.DurationMs
			}
			fmt.Fprintf(&b, "(%d,%d,0)%s", syl.StartMs, dur, syl.Text)
			if syl.EndsWithSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
