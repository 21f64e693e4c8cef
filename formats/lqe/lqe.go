// Package lqe implements the Lyricify Quick Export composite container:
// a `[Lyricify Quick Export]` header followed by one or more
// `[lyrics:format@X,language@Y]` / `[translation:...]` / `[pronunciation:...]`
// blocks, each independently parsed through its declared inner format and
// folded together by timestamp via merge.
package lqe

import (
	"fmt"
	"strings"

	"github.com/apoint123/lyricsforge/errs"
	"github.com/apoint123/lyricsforge/formats/applemusicjson"
	"github.com/apoint123/lyricsforge/formats/ass"
	"github.com/apoint123/lyricsforge/formats/enhancedlrc"
	"github.com/apoint123/lyricsforge/formats/krc"
	"github.com/apoint123/lyricsforge/formats/lrc"
	"github.com/apoint123/lyricsforge/formats/lyl"
	"github.com/apoint123/lyricsforge/formats/lys"
	"github.com/apoint123/lyricsforge/formats/qrc"
	"github.com/apoint123/lyricsforge/formats/spl"
	"github.com/apoint123/lyricsforge/formats/ttml"
	"github.com/apoint123/lyricsforge/formats/yrc"
	"github.com/apoint123/lyricsforge/ir"
	"github.com/apoint123/lyricsforge/merge"
)

const headerMarker = "[Lyricify Quick Export]"

type blockKind int

const (
	blockLyrics blockKind = iota
	blockTranslation
	blockPronunciation
)

// parseSubFormat dispatches to a leaf format parser by LyricFormat tag.
// LQE never nests LQE or TTML's JSON sibling in practice; the JSON sibling
// is wired through for completeness, while an unrecognized or unsupported
// tag (LQE included) falls back to LRC, matching the original exporter's
// leniency.
func parseSubFormat(content string, format ir.LyricFormat) (ir.ParsedSourceData, error) {
	switch format {
	case ir.FormatLRC:
		return lrc.Parse(content)
	case ir.FormatEnhancedLRC:
		return enhancedlrc.Parse(content)
	case ir.FormatLyricifyLines:
		return lyl.Parse(content)
	case ir.FormatLYS:
		return lys.Parse(content)
	case ir.FormatQRC:
		return qrc.Parse(content)
	case ir.FormatKRC:
		return krc.Parse(content)
	case ir.FormatYRC:
		return yrc.Parse(content)
	case ir.FormatTTML:
		return ttml.Parse(content)
	case ir.FormatAppleMusicJSON:
		return applemusicjson.Parse(content)
	case ir.FormatSPL:
		return spl.Parse(content)
	case ir.FormatASS:
		return ass.Parse(content)
	default:
		return lrc.Parse(content)
	}
}

// generateSubFormat dispatches to a leaf format generator. The original
// exporter only ever emits Lrc/EnhancedLrc/Lys bodies for inner blocks;
// QRC, KRC, YRC, LyricifyLines, SPL and ASS are accepted too, since
// nothing about the container format prevents it. TTML, AppleMusicJson
// and LQE inner formats return an error.
func generateSubFormat(lines []ir.LyricLine, metadata *ir.MetadataStore, format ir.LyricFormat) (string, error) {
	switch format {
	case ir.FormatLRC:
		return lrc.Generate(lines, metadata, lrc.GenerationOptions{})
	case ir.FormatEnhancedLRC:
		return enhancedlrc.Generate(lines, metadata)
	case ir.FormatLyricifyLines:
		return lyl.Generate(lines, metadata)
	case ir.FormatLYS:
		return lys.Generate(lines, metadata)
	case ir.FormatQRC:
		return qrc.Generate(lines, metadata)
	case ir.FormatKRC:
		return krc.Generate(lines, metadata)
	case ir.FormatYRC:
		return yrc.Generate(lines, metadata)
	case ir.FormatSPL:
		return spl.Generate(lines, metadata)
	case ir.FormatASS:
		return ass.Generate(lines, metadata)
	default:
		return "", errs.New(errs.Internal, fmt.Sprintf("lqe: generator does not support inner format %q", format))
	}
}

func sectionHeader(line string) (kind blockKind, format ir.LyricFormat, lang string, ok bool) {
	var prefix string
	switch {
	case strings.HasPrefix(line, "[lyrics:"):
		kind, prefix = blockLyrics, "[lyrics:"
	case strings.HasPrefix(line, "[translation:"):
		kind, prefix = blockTranslation, "[translation:"
	case strings.HasPrefix(line, "[pronunciation:"):
		kind, prefix = blockPronunciation, "[pronunciation:"
	default:
		return 0, "", "", false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(line, prefix), "]")
	format = ir.FormatLRC
	for _, param := range strings.Split(body, ",") {
		k, v, found := strings.Cut(param, "@")
		if !found {
			continue
		}
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		switch k {
		case "format":
			if f, known := ir.ParseLyricFormat(v); known {
				format = f
			}
		case "language":
			lang = v
		}
	}
	return kind, format, lang, true
}

// Parse reads LQE content into a ParsedSourceData: the first `[lyrics:...]`
// block becomes the primary; translation/pronunciation blocks are parsed
// independently and folded onto the primary via merge.FoldTranslations /
// merge.FoldRomanizations.
func Parse(content string) (ir.ParsedSourceData, error) {
	result := ir.ParsedSourceData{SourceFormat: ir.FormatLQE}
	if !strings.HasPrefix(strings.TrimSpace(content), headerMarker) {
		return result, errs.New(errs.InvalidLyricFormat, "LQE content missing [Lyricify Quick Export] header")
	}

	rawMetadata := make(map[string][]string)
	var mainBlocks []ir.ParsedSourceData
	var translationAux []merge.Aux
	var pronunciationAux []merge.Aux

	state := blockLyrics
	haveBlock := false
	var blockContent strings.Builder
	blockFormat := ir.FormatLRC
	blockLang := ""

	flush := func() {
		if !haveBlock {
			return
		}
		text := blockContent.String()
		blockContent.Reset()
		haveBlock = false
		if strings.TrimSpace(text) == "" {
			return
		}
		parsed, err := parseSubFormat(text, blockFormat)
		if err != nil {
			result.AddWarning(fmt.Sprintf("LQE: inner %v block failed to parse: %v", blockFormat, err))
			return
		}
		switch state {
		case blockLyrics:
			mainBlocks = append(mainBlocks, parsed)
		case blockTranslation:
			translationAux = append(translationAux, merge.Aux{Data: &parsed, Lang: blockLang})
		case blockPronunciation:
			pronunciationAux = append(pronunciationAux, merge.Aux{Data: &parsed, Lang: blockLang})
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if kind, format, lang, ok := sectionHeader(trimmed); ok {
			flush()
			state, blockFormat, blockLang = kind, format, lang
			haveBlock = true
			continue
		}
		if trimmed == headerMarker || strings.HasPrefix(trimmed, "[version:") {
			continue
		}
		if ir.ParseAndStoreMetadataTag(trimmed, rawMetadata) {
			continue
		}
		if haveBlock {
			blockContent.WriteString(line)
			blockContent.WriteByte('\n')
		}
	}
	flush()

	if len(mainBlocks) == 0 {
		return result, errs.New(errs.InvalidLyricFormat, "LQE content has no [lyrics:...] block")
	}
	result = mainBlocks[0]
	result.SourceFormat = ir.FormatLQE
	if result.RawMetadata == nil {
		result.RawMetadata = make(map[string][]string)
	}
	for k, v := range rawMetadata {
		result.RawMetadata[k] = append(result.RawMetadata[k], v...)
	}

	merge.FoldTranslations(&result, translationAux)
	merge.FoldRomanizations(&result, pronunciationAux)
	for _, aux := range translationAux {
		for k, v := range aux.Data.RawMetadata {
			result.RawMetadata[k] = append(result.RawMetadata[k], v...)
		}
	}
	for _, aux := range pronunciationAux {
		for k, v := range aux.Data.RawMetadata {
			result.RawMetadata[k] = append(result.RawMetadata[k], v...)
		}
	}

	return result, nil
}

// Options selects which inner formats the lyrics/auxiliary blocks are
// rendered as.
type Options struct {
	MainFormat      ir.LyricFormat
	AuxiliaryFormat ir.LyricFormat
}

// Generate renders lines as an LQE container: a header, a [lyrics:...]
// block in opts.MainFormat, and [translation:...]/[pronunciation:...]
// blocks in opts.AuxiliaryFormat when the lines carry any such entries.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore, opts Options) (string, error) {
	var b strings.Builder
	b.WriteString(headerMarker + "\n")
	b.WriteString("[version:1.0]\n")

	if metadata != nil {
		header := metadata.GenerateLRCHeader()
		for _, tag := range header {
			b.WriteString(tag)
			b.WriteByte('\n')
		}
		if len(header) > 0 {
			b.WriteByte('\n')
		}
	}

	mainLang := "und"
	if metadata != nil {
		if v, ok := metadata.GetSingleValue(ir.KeyLanguage); ok {
			mainLang = v
		}
	}
	fmt.Fprintf(&b, "[lyrics: format@%s, language@%s]\n", opts.MainFormat, mainLang)
	mainBody, err := generateSubFormat(lines, metadata, opts.MainFormat)
	if err != nil {
		return "", err
	}
	b.WriteString(mainBody)
	b.WriteString("\n\n")

	transLang, hasTrans := firstTranslationLang(lines)
	if hasTrans {
		fmt.Fprintf(&b, "[translation: format@%s, language@%s]\n", opts.AuxiliaryFormat, transLang)
		transLines := projectTranslations(lines)
		body, err := generateSubFormat(transLines, metadata, opts.AuxiliaryFormat)
		if err != nil {
			return "", err
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	romaLang, hasRoma := firstRomanizationLang(lines)
	if hasRoma {
		fmt.Fprintf(&b, "[pronunciation: format@%s, language@%s]\n", opts.AuxiliaryFormat, romaLang)
		romaLines := projectRomanizations(lines)
		body, err := generateSubFormat(romaLines, metadata, opts.AuxiliaryFormat)
		if err != nil {
			return "", err
		}
		b.WriteString(body)
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func firstTranslationLang(lines []ir.LyricLine) (string, bool) {
	for _, l := range lines {
		if len(l.Translations) == 0 {
			continue
		}
		if l.Translations[0].Lang != "" {
			return l.Translations[0].Lang, true
		}
		return "und", true
	}
	return "", false
}

func firstRomanizationLang(lines []ir.LyricLine) (string, bool) {
	for _, l := range lines {
		if len(l.Romanizations) == 0 {
			continue
		}
		if l.Romanizations[0].Lang != "" {
			return l.Romanizations[0].Lang, true
		}
		return "romaji", true
	}
	return "", false
}

func projectTranslations(lines []ir.LyricLine) []ir.LyricLine {
	var out []ir.LyricLine
	for _, l := range lines {
		if len(l.Translations) == 0 {
			continue
		}
		proj := l
		proj.LineText = l.Translations[0].Text
		proj.HasLineText = true
		proj.MainSyllables = []ir.LyricSyllable{{Text: l.Translations[0].Text, StartMs: l.StartMs, EndMs: l.EndMs}}
		proj.Translations = nil
		proj.Romanizations = nil
		proj.BackgroundSection = nil
		out = append(out, proj)
	}
	return out
}

func projectRomanizations(lines []ir.LyricLine) []ir.LyricLine {
	var out []ir.LyricLine
	for _, l := range lines {
		if len(l.Romanizations) == 0 {
			continue
		}
		proj := l
		proj.LineText = l.Romanizations[0].Text
		proj.HasLineText = true
		proj.MainSyllables = []ir.LyricSyllable{{Text: l.Romanizations[0].Text, StartMs: l.StartMs, EndMs: l.EndMs}}
		proj.Translations = nil
		proj.Romanizations = nil
		proj.BackgroundSection = nil
		out = append(out, proj)
	}
	return out
}
