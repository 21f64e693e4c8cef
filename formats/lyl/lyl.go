// Package lyl implements LyricifyLines: pure line-timed `[start,end]text`
// records with absolute millisecond timestamps.
package lyl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

var lineRegex = regexp.MustCompile(`^\[(\d+),(\d+)\](.*)$`)

// Parse reads LyricifyLines content into a ParsedSourceData.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatLyricifyLines, IsLineTimedSource: true}
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
		m := lineRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("LYL parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		start, errS := strconv.ParseInt(m[1], 10, 64)
		end, errE := strconv.ParseInt(m[2], 10, 64)
		if errS != nil || errE != nil || end < start {
			data.AddWarning(fmt.Sprintf("LYL parse warning (line %d): invalid timestamps.", lineNum))
			continue
		}
		text := ir.NormalizeTextWhitespace(m[3])
		lines = append(lines, ir.LyricLine{
			StartMs:     start,
			EndMs:       end,
			LineText:    text,
			HasLineText: true,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

// Generate renders lines as LyricifyLines text.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var b strings.Builder
	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
	}
	for _, line := range lines {
		text := line.LineText
		if text == "" {
			text = ir.JoinSyllables(line.MainSyllables)
		}
		fmt.Fprintf(&b, "[%d,%d]%s\n", line.StartMs, line.EndMs, text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
