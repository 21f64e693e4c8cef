// Package lys implements Lyricify Syllable (LYS): a per-line `[N]`
// attribute (encoding agent side and background-vocal status as bit
// flags) followed by `text(start,duration)` syllable runs.
package lys

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

// Attribute bit flags, per spec §4.1's "attribute encodes L/R/background".
const (
	attrRightAgent = 1 << 0
	attrBackground = 1 << 2
)

var (
	lineAttrRegex = regexp.MustCompile(`^\[(\d+)\](.*)$`)
	syllableRegex = regexp.MustCompile(`([^()]*)\((\d+),(\d+)\)`)
)

// Parse reads LYS content into a ParsedSourceData.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatLYS}
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
		m := lineAttrRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("LYS parse warning (line %d): missing [N] attribute prefix in %q.", lineNum, trimmed))
			continue
		}
		attr, err := strconv.Atoi(m[1])
		if err != nil {
			data.AddWarning(fmt.Sprintf("LYS parse warning (line %d): invalid attribute value.", lineNum))
			continue
		}
		rest := m[2]

		var syls []ir.LyricSyllable
		matches := syllableRegex.FindAllStringSubmatch(rest, -1)
		for _, sm := range matches {
			start, errS := strconv.ParseInt(sm[2], 10, 64)
			dur, errD := strconv.ParseInt(sm[3], 10, 64)
			if errS != nil || errD != nil {
				data.AddWarning(fmt.Sprintf("LYS parse warning (line %d): invalid syllable timing %q.", lineNum, sm[0]))
				continue
			}
			clean, endsSpace, ok := ir.ProcessSyllableText(sm[1], syls)
			if !ok {
				continue
			}
			syls = append(syls, ir.LyricSyllable{
				Text:          clean,
				StartMs:       start,
				EndMs:         start + dur,
				DurationMs:    &dur,
				EndsWithSpace: endsSpace,
			})
		}
		if len(syls) == 0 {
			data.AddWarning(fmt.Sprintf("LYS parse warning (line %d): no syllables found.", lineNum))
			continue
		}

		line := ir.LyricLine{
			StartMs:       syls[0].StartMs,
			EndMs:         syls[len(syls)-1].EndMs,
			MainSyllables: syls,
			LineText:      ir.JoinSyllables(syls),
			HasLineText:   true,
		}
		if attr&attrRightAgent != 0 {
			line.Agent = "v2"
		} else {
			line.Agent = "v1"
		}
		if attr&attrBackground != 0 {
			bg := &ir.BackgroundSection{StartMs: line.StartMs, EndMs: line.EndMs, Syllables: line.MainSyllables}
			line.MainSyllables = nil
			line.LineText = ""
			line.HasLineText = false
			line.BackgroundSection = bg
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

// Generate renders lines as LYS text, re-deriving the [N] attribute from
// Agent and whether the content lives in a BackgroundSection.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var b strings.Builder
	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
	}
	for _, line := range lines {
		syls := line.MainSyllables
		attr := 0
		if line.Agent == "v2" {
			attr |= attrRightAgent
		}
		if line.BackgroundSection != nil {
			attr |= attrBackground
			syls = line.BackgroundSection.Syllables
		}
		fmt.Fprintf(&b, "[%d]", attr)
		for _, syl := range syls {
			dur := syl.EndMs - syl.StartMs
			if syl.DurationMs != nil {
				dur = *syl.DurationMs
			}
			fmt.Fprintf(&b, "%s(%d,%d)", syl.Text, syl.StartMs, dur)
			if syl.EndsWithSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
