// Package processors implements the mutate-in-place IR transforms that
// run between merge and generation: agent recognition, CJK conversion,
// syllable smoothing and metadata normalization.
package processors

import (
	"fmt"
	"strings"
	"sync"

	"github.com/liuzl/gocc"
	"github.com/mozillazg/go-pinyin"
	"github.com/sirupsen/logrus"

	"github.com/apoint123/lyricsforge/ir"
)

// ChineseConversionConfig is the closed set of OpenCC configurations
// wired through github.com/liuzl/gocc.
type ChineseConversionConfig string

const (
	ConfigS2T   ChineseConversionConfig = "s2t"
	ConfigT2S   ChineseConversionConfig = "t2s"
	ConfigS2TW  ChineseConversionConfig = "s2tw"
	ConfigTW2S  ChineseConversionConfig = "tw2s"
	ConfigS2TWP ChineseConversionConfig = "s2twp"
	ConfigTW2SP ChineseConversionConfig = "tw2sp"
	ConfigS2HK  ChineseConversionConfig = "s2hk"
	ConfigHK2S  ChineseConversionConfig = "hk2s"
)

// DeduceLangTag returns the BCP-47 tag a config conventionally produces,
// used when ChineseConversionOptions.TargetLangTag is unset.
func (c ChineseConversionConfig) DeduceLangTag() (string, bool) {
	switch c {
	case ConfigS2T:
		return "zh-Hant", true
	case ConfigT2S, ConfigTW2S, ConfigTW2SP, ConfigHK2S:
		return "zh-Hans", true
	case ConfigS2TW, ConfigS2TWP:
		return "zh-Hant-TW", true
	case ConfigS2HK:
		return "zh-Hant-HK", true
	default:
		return "", false
	}
}

// ChineseConversionMode selects how a conversion's output is applied.
type ChineseConversionMode int

const (
	// AddAsTranslation converts each line's main text and appends it as
	// a new TranslationEntry, skipping lines that already carry a
	// translation in the target language.
	AddAsTranslation ChineseConversionMode = iota
	// Replace converts syllable text in place, falling back from
	// whole-word to per-syllable to per-character conversion whenever a
	// coarser pass changes the text's phonetic reading.
	Replace
)

// ChineseConversionOptions configures ConvertChinese.
type ChineseConversionOptions struct {
	Config        ChineseConversionConfig // empty disables conversion
	Mode          ChineseConversionMode
	TargetLangTag string // overrides Config.DeduceLangTag when set
}

var converterCache sync.Map // ChineseConversionConfig -> *gocc.OpenCC

func converterFor(config ChineseConversionConfig) (*gocc.OpenCC, error) {
	if v, ok := converterCache.Load(config); ok {
		return v.(*gocc.OpenCC), nil
	}
	cc, err := gocc.New(string(config))
	if err != nil {
		return nil, err
	}
	actual, _ := converterCache.LoadOrStore(config, cc)
	return actual.(*gocc.OpenCC), nil
}

// convertText runs text through the cached OpenCC instance for config,
// logging and returning text unchanged if the converter fails to load.
func convertText(text string, config ChineseConversionConfig) string {
	cc, err := converterFor(config)
	if err != nil {
		logrus.WithError(err).WithField("config", config).Error("failed to initialize OpenCC converter")
		return text
	}
	out, err := cc.Convert(text)
	if err != nil {
		logrus.WithError(err).WithField("config", config).Warn("OpenCC conversion failed, keeping original text")
		return text
	}
	return out
}

// pinyinIsSame reports whether original and converted share the same
// tone-insensitive pinyin reading, character for character. Multi-tone
// characters make tone comparison unreliable, so only the toneless
// reading is compared, per spec.md §4.6.
func pinyinIsSame(original, converted string) bool {
	origRunes := []rune(original)
	convRunes := []rune(converted)
	if len(origRunes) != len(convRunes) {
		return false
	}
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	origPy := pinyin.Pinyin(original, args)
	convPy := pinyin.Pinyin(converted, args)
	if len(origPy) != len(convPy) {
		return false
	}
	for i := range origPy {
		if !stringSlicesEqual(origPy[i], convPy[i]) {
			return false
		}
	}
	return true
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ConvertChinese applies opts to every line's main content, per spec.md
// §4.6's two modes. A zero-value Config is a no-op.
func ConvertChinese(lines []ir.LyricLine, opts ChineseConversionOptions) {
	if opts.Config == "" {
		return
	}
	switch opts.Mode {
	case AddAsTranslation:
		addAsTranslation(lines, opts)
	case Replace:
		replaceInPlace(lines, opts.Config)
	}
}

func addAsTranslation(lines []ir.LyricLine, opts ChineseConversionOptions) {
	targetLangTag := opts.TargetLangTag
	if targetLangTag == "" {
		tag, ok := opts.Config.DeduceLangTag()
		if !ok {
			logrus.WithField("config", opts.Config).Warn("cannot determine target_lang_tag, skipping CJK conversion")
			return
		}
		targetLangTag = tag
	}

	for i := range lines {
		line := &lines[i]
		if hasTranslationLang(line.Translations, targetLangTag) {
			continue
		}
		mainText := line.LineText
		if mainText == "" {
			mainText = ir.JoinSyllables(line.MainSyllables)
		}
		if mainText == "" {
			continue
		}
		converted := convertText(mainText, opts.Config)
		line.Translations = append(line.Translations, ir.TranslationEntry{Text: converted, Lang: targetLangTag})
	}
}

func hasTranslationLang(translations []ir.TranslationEntry, lang string) bool {
	for _, t := range translations {
		if t.Lang == lang {
			return true
		}
	}
	return false
}

// wordSpan is a contiguous run of syllables with no space between them,
// the flat shape's closest analogue to the structured shape's Word.
type wordSpan struct{ start, end int } // [start, end)

func wordSpans(syls []ir.LyricSyllable) []wordSpan {
	var spans []wordSpan
	start := 0
	for i, s := range syls {
		if s.EndsWithSpace || i == len(syls)-1 {
			spans = append(spans, wordSpan{start, i + 1})
			start = i + 1
		}
	}
	return spans
}

func replaceInPlace(lines []ir.LyricLine, config ChineseConversionConfig) {
	for i := range lines {
		replaceSyllables(lines[i].MainSyllables, config)
		if bg := lines[i].BackgroundSection; bg != nil {
			replaceSyllables(bg.Syllables, config)
		}
	}
}

func replaceSyllables(syls []ir.LyricSyllable, config ChineseConversionConfig) {
	for _, span := range wordSpans(syls) {
		replaceWord(syls[span.start:span.end], config)
	}
}

func replaceWord(word []ir.LyricSyllable, config ChineseConversionConfig) {
	var texts []string
	for _, s := range word {
		texts = append(texts, s.Text)
	}
	fullText := strings.Join(texts, "")
	if fullText == "" {
		return
	}

	convertedFull := convertText(fullText, config)
	if pinyinIsSame(fullText, convertedFull) {
		convertedRunes := []rune(convertedFull)
		cursor := 0
		for i, t := range texts {
			n := len([]rune(t))
			if cursor+n > len(convertedRunes) {
				break
			}
			word[i].Text = string(convertedRunes[cursor : cursor+n])
			cursor += n
		}
		return
	}

	logrus.WithFields(logrus.Fields{"word": fullText, "converted": convertedFull}).
		Warn("word conversion changed phonetic reading or length, falling back to per-syllable")

	for i := range word {
		if word[i].Text == "" {
			continue
		}
		convertSyllableWithFallback(&word[i], config)
	}
}

func convertSyllableWithFallback(syl *ir.LyricSyllable, config ChineseConversionConfig) {
	original := syl.Text
	convertedSyl := convertText(original, config)
	if pinyinIsSame(original, convertedSyl) {
		syl.Text = convertedSyl
		return
	}

	var b strings.Builder
	for _, r := range original {
		b.WriteString(convertText(string(r), config))
	}
	charByChar := b.String()
	if pinyinIsSame(original, charByChar) {
		syl.Text = charByChar
		return
	}

	logrus.WithField("syllable", original).Warn(fmt.Sprintf("syllable conversion changed reading for config %s, keeping original", config))
}
