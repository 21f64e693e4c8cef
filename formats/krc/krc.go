// Package krc implements the KRC karaoke format: `[start,duration]`
// line headers followed by `<offset,duration,0>text` syllable runs
// (offsets relative to the line start), plus an optional embedded
// `[language:BASE64]` translation block.
package krc

import (
	"encoding/base64"
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
	syllableRegex   = regexp.MustCompile(`<(\d+),(\d+),(\d+)>([^<]*)`)
)

// krcLanguageBlock mirrors the embedded translation payload's JSON shape:
// one entry per declared language, each carrying one text array per line.
type krcLanguageBlock struct {
	Content []struct {
		Type         int        `json:"type"`
		LyricContent [][]string `json:"lyricContent"`
	} `json:"content"`
}

// Parse reads KRC content into a ParsedSourceData.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatKRC}
	rawMetadata := make(map[string][]string)
	var lines []ir.LyricLine
	var languageB64 string

	for i, raw := range strings.Split(content, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if m := regexp.MustCompile(`^\[language:(.*)\]$`).FindStringSubmatch(trimmed); m != nil {
			languageB64 = m[1]
			continue
		}
		if ir.ParseAndStoreMetadataTag(trimmed, rawMetadata) {
			continue
		}
		m := lineHeaderRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("KRC parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		start, errS := strconv.ParseInt(m[1], 10, 64)
		dur, errD := strconv.ParseInt(m[2], 10, 64)
		if errS != nil || errD != nil {
			data.AddWarning(fmt.Sprintf("KRC parse warning (line %d): invalid line timing.", lineNum))
			continue
		}

		var syls []ir.LyricSyllable
		for _, sm := range syllableRegex.FindAllStringSubmatch(m[3], -1) {
			off, e1 := strconv.ParseInt(sm[1], 10, 64)
			sylDur, e2 := strconv.ParseInt(sm[2], 10, 64)
			if e1 != nil || e2 != nil {
				data.AddWarning(fmt.Sprintf("KRC parse warning (line %d): invalid syllable offset %q.", lineNum, sm[0]))
				continue
			}
			clean, endsSpace, ok := ir.ProcessSyllableText(sm[4], syls)
			if !ok {
				continue
			}
			sylStart := start + off
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

	if languageB64 != "" {
		applyEmbeddedTranslation(languageB64, lines, &data)
	}

	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

func applyEmbeddedTranslation(b64 string, lines []ir.LyricLine, data *ir.ParsedSourceData) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		data.AddWarning("KRC: embedded [language:...] block is not valid base64, skipping.")
		return
	}
	var block krcLanguageBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		data.AddWarning("KRC: embedded [language:...] block is not valid JSON, skipping.")
		return
	}
	for _, c := range block.Content {
		for i, entry := range c.LyricContent {
			if i >= len(lines) || len(entry) == 0 {
				continue
			}
			text := strings.TrimSpace(entry[0])
			if text == "" {
				continue
			}
			lines[i].Translations = append(lines[i].Translations, ir.TranslationEntry{Text: text})
		}
	}
}

// Generate renders lines as KRC text. Embedded translation blocks are not
// regenerated; downstream translation tracks should be merged via another
// target format (LQE, TTML) if round-tripping translations is required.
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
			off := syl.StartMs - line.StartMs
			dur := syl.EndMs - syl.StartMs
			if syl.DurationMs != nil {
				dur = *syl.DurationMs
			}
			fmt.Fprintf(&b, "<%d,%d,0>%s", off, dur, syl.Text)
			if syl.EndsWithSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}
