// Package qrc implements the QRC karaoke format: an XML envelope whose
// LyricContent attribute holds the actual `[start,duration]text(s,d)...`
// karaoke body, plus an optional sibling KanaContent attribute carrying
// per-character furigana timing. Parse and Generate operate on already
// -decrypted plaintext; the non-standard 3DES+zlib transport codec for
// QQ-Music-style encrypted payloads lives in
// github.com/apoint123/lyricsforge/internal/qrccodec. The orchestrator
// does not call it; the CLI's decrypt/encrypt subcommands expose it, and
// callers decrypt content before handing it to this package, keeping
// Parse/Generate pure per spec §4.2.
package qrc

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/errs"
	"github.com/apoint123/lyricsforge/internal/xmlnode"
	"github.com/apoint123/lyricsforge/ir"
)

var (
	lineHeaderRegex = regexp.MustCompile(`^\[(\d+),(\d+)\](.*)$`)
	syllableRegex   = regexp.MustCompile(`(.*?)\((\d+),(\d+)\)`)
)

// Parse reads a QRC XML envelope into a ParsedSourceData.
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatQRC}

	doc, err := xmlnode.ParseDocument(content)
	if err != nil {
		return data, errs.Wrap(errs.Xml, err, "failed to parse QRC XML envelope")
	}

	var lyricContent, kanaContent string
	for _, el := range xmlnode.FindAll(doc) {
		if v, ok := el.AttrValueLocal("LyricContent"); ok && v != "" {
			lyricContent = v
		}
		if v, ok := el.AttrValueLocal("KanaContent"); ok && v != "" {
			kanaContent = v
		}
	}
	if lyricContent == "" {
		return data, errs.New(errs.InvalidLyricFormat, "QRC envelope has no LyricContent attribute")
	}

	var kanaSyls []ir.LyricSyllable
	if kanaContent != "" {
		kanaSyls = parseSyllableBody(kanaContent, &data, "kana")
	}
	kanaIdx := 0

	rawMetadata := make(map[string][]string)
	var lines []ir.LyricLine
	for i, raw := range strings.Split(lyricContent, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if ir.ParseAndStoreMetadataTag(trimmed, rawMetadata) {
			continue
		}
		m := lineHeaderRegex.FindStringSubmatch(trimmed)
		if m == nil {
			data.AddWarning(fmt.Sprintf("QRC parse warning (line %d): unrecognized line format %q.", lineNum, trimmed))
			continue
		}
		start, errS := strconv.ParseInt(m[1], 10, 64)
		dur, errD := strconv.ParseInt(m[2], 10, 64)
		if errS != nil || errD != nil {
			data.AddWarning(fmt.Sprintf("QRC parse warning (line %d): invalid line timing.", lineNum))
			continue
		}

		var syls []ir.LyricSyllable
		for _, sm := range syllableRegex.FindAllStringSubmatch(m[3], -1) {
			sylStart, e1 := strconv.ParseInt(sm[2], 10, 64)
			sylDur, e2 := strconv.ParseInt(sm[3], 10, 64)
			if e1 != nil || e2 != nil {
				data.AddWarning(fmt.Sprintf("QRC parse warning (line %d): invalid syllable timing %q.", lineNum, sm[0]))
				continue
			}
			clean, endsSpace, ok := ir.ProcessSyllableText(sm[1], syls)
			if !ok {
				continue
			}
			syl := ir.LyricSyllable{Text: clean, StartMs: sylStart, EndMs: sylStart + sylDur, DurationMs: &sylDur, EndsWithSpace: endsSpace}
			if kanaIdx < len(kanaSyls) {
				syl.Furigana = []ir.FuriganaSyllable{{
					Text: kanaSyls[kanaIdx].Text, HasTiming: true,
					StartMs: kanaSyls[kanaIdx].StartMs, EndMs: kanaSyls[kanaIdx].EndMs,
				}}
				kanaIdx++
			}
			syls = append(syls, syl)
		}
		if len(syls) == 0 {
			continue
		}

		line := ir.LyricLine{
			StartMs:       start,
			EndMs:         start + dur,
			MainSyllables: syls,
			LineText:      ir.JoinSyllables(syls),
			HasLineText:   true,
		}
		lines, line = promoteBackgroundVocal(lines, line, &data)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	data.Lines = lines
	data.RawMetadata = rawMetadata
	return data, nil
}

func parseSyllableBody(body string, data *ir.ParsedSourceData, label string) []ir.LyricSyllable {
	var out []ir.LyricSyllable
	for _, sm := range syllableRegex.FindAllStringSubmatch(body, -1) {
		start, e1 := strconv.ParseInt(sm[2], 10, 64)
		dur, e2 := strconv.ParseInt(sm[3], 10, 64)
		if e1 != nil || e2 != nil {
			data.AddWarning(fmt.Sprintf("QRC %s parse warning: invalid timing %q.", label, sm[0]))
			continue
		}
		clean, endsSpace, ok := ir.ProcessSyllableText(sm[1], out)
		if !ok {
			continue
		}
		out = append(out, ir.LyricSyllable{Text: clean, StartMs: start, EndMs: start + dur, EndsWithSpace: endsSpace})
	}
	return out
}

// promoteBackgroundVocal implements scenario C: a line whose text is
// fully parenthesized is re-parented onto the immediately preceding line
// as its BackgroundSection, unless the preceding line is itself such a
// parenthesized line, in which case both stay as independent main lines
// and a warning is recorded.
func promoteBackgroundVocal(lines []ir.LyricLine, line ir.LyricLine, data *ir.ParsedSourceData) ([]ir.LyricLine, ir.LyricLine) {
	text := strings.TrimSpace(line.LineText)
	isParenthesized := (strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")")) ||
		(strings.HasPrefix(text, "（") && strings.HasSuffix(text, "）"))
	if !isParenthesized || len(lines) == 0 {
		return append(lines, line), line
	}
	prev := &lines[len(lines)-1]
	prevText := strings.TrimSpace(prev.LineText)
	prevIsParenthesized := (strings.HasPrefix(prevText, "(") && strings.HasSuffix(prevText, ")")) ||
		(strings.HasPrefix(prevText, "（") && strings.HasSuffix(prevText, "）"))
	if prevIsParenthesized {
		data.AddWarning(fmt.Sprintf("QRC: two consecutive parenthesized lines at %dms and %dms, both kept as main lines.", prev.StartMs, line.StartMs))
		return append(lines, line), line
	}

	stripped := make([]ir.LyricSyllable, len(line.MainSyllables))
	copy(stripped, line.MainSyllables)
	if len(stripped) > 0 {
		stripped[0].Text = strings.TrimPrefix(strings.TrimPrefix(stripped[0].Text, "("), "（")
		last := len(stripped) - 1
		stripped[last].Text = strings.TrimSuffix(strings.TrimSuffix(stripped[last].Text, ")"), "）")
	}
	prev.BackgroundSection = &ir.BackgroundSection{
		StartMs:   line.StartMs,
		EndMs:     line.EndMs,
		Syllables: stripped,
	}
	return lines, *prev
}

// Generate renders lines as a QRC XML envelope.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error) {
	var body strings.Builder
	if metadata != nil {
		for _, tag := range metadata.GenerateLRCHeader() {
			body.WriteString(tag)
			body.WriteByte('\n')
		}
	}
	for _, line := range lines {
		writeQRCLine(&body, line.StartMs, line.EndMs-line.StartMs, line.MainSyllables)
		if bg := line.BackgroundSection; bg != nil {
			wrapped := wrapParens(bg.Syllables)
			writeQRCLine(&body, bg.StartMs, bg.EndMs-bg.StartMs, wrapped)
		}
	}

	root := xmlnode.NewElement("QrcInfos")
	info := xmlnode.NewElement("QrcInfo")
	info.SetAttr("LyricContent", body.String())
	root.AppendChild(info)
	doc := &xmlnode.Node{Type: xmlnode.Document}
	doc.AppendChild(root)

	var sb strings.Builder
	xmlnode.Serialize(&sb, doc, false, 0)
	return sb.String(), nil
}

func wrapParens(syls []ir.LyricSyllable) []ir.LyricSyllable {
	if len(syls) == 0 {
		return syls
	}
	out := make([]ir.LyricSyllable, len(syls))
	copy(out, syls)
	out[0].Text = "(" + out[0].Text
	out[len(out)-1].Text = out[len(out)-1].Text + ")"
	return out
}

func writeQRCLine(b *strings.Builder, start, dur int64, syls []ir.LyricSyllable) {
	fmt.Fprintf(b, "[%d,%d]", start, dur)
	for _, syl := range syls {
		sylDur := syl.EndMs - syl.StartMs
		if syl.DurationMs != nil {
			sylDur = *syl.DurationMs
		}
		fmt.Fprintf(b, "%s(%d,%d)", syl.Text, syl.StartMs, sylDur)
		if syl.EndsWithSpace {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('\n')
}
