// Package ir defines the canonical in-memory representation shared by every
// parser and generator in lyricsforge: a tree of timed lines, syllables and
// tracks, plus the metadata store that survives independently of any one
// wire format.
package ir

import "strconv"

// LyricFormat is the closed set of wire formats the engine recognizes.
type LyricFormat string

const (
	FormatLRC            LyricFormat = "lrc"
	FormatEnhancedLRC    LyricFormat = "enhanced-lrc"
	FormatLyricifyLines  LyricFormat = "lyl"
	FormatLYS            LyricFormat = "lys"
	FormatQRC            LyricFormat = "qrc"
	FormatKRC            LyricFormat = "krc"
	FormatYRC            LyricFormat = "yrc"
	FormatTTML           LyricFormat = "ttml"
	FormatAppleMusicJSON LyricFormat = "json"
	FormatSPL            LyricFormat = "spl"
	FormatASS            LyricFormat = "ass"
	FormatLQE            LyricFormat = "lqe"
)

// ParseLyricFormat resolves a case-insensitive wire tag to a LyricFormat.
func ParseLyricFormat(tag string) (LyricFormat, bool) {
	switch normalizeTag(tag) {
	case "lrc":
		return FormatLRC, true
	case "enhanced-lrc", "enhancedlrc", "elrc":
		return FormatEnhancedLRC, true
	case "lyl", "lyricifylines":
		return FormatLyricifyLines, true
	case "lys":
		return FormatLYS, true
	case "qrc":
		return FormatQRC, true
	case "krc":
		return FormatKRC, true
	case "yrc":
		return FormatYRC, true
	case "ttml":
		return FormatTTML, true
	case "json", "applemusicjson":
		return FormatAppleMusicJSON, true
	case "spl":
		return FormatSPL, true
	case "ass":
		return FormatASS, true
	case "lqe":
		return FormatLQE, true
	default:
		return "", false
	}
}

func normalizeTag(tag string) string {
	b := make([]byte, 0, len(tag))
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == '_' {
			c = '-'
		}
		b = append(b, c)
	}
	return string(b)
}

// ContentType tags an AnnotatedTrack's role within a structured line.
type ContentType int

const (
	ContentMain ContentType = iota
	ContentBackground
	ContentTranslation
	ContentRomanization
)

func (c ContentType) String() string {
	switch c {
	case ContentMain:
		return "main"
	case ContentBackground:
		return "background"
	case ContentTranslation:
		return "translation"
	case ContentRomanization:
		return "romanization"
	default:
		return "content(" + strconv.Itoa(int(c)) + ")"
	}
}

// TrackMetadataKey is a small closed-ish set of per-track metadata keys;
// unrecognized keys are still valid map keys, there is no Custom wrapper
// here since tracks carry far fewer keys than the top-level MetadataStore.
type TrackMetadataKey string

const (
	TrackMetaLanguage TrackMetadataKey = "language"
)

// FuriganaSyllable is a per-character phonetic annotation over a Word,
// typically ruby text over kanji. Timing is optional: untimed furigana
// (plain reading annotations) is legal.
type FuriganaSyllable struct {
	Text      string
	HasTiming bool
	StartMs   int64
	EndMs     int64
}

// Word groups one or more syllables into a logical word, optionally
// carrying furigana.
type Word struct {
	Syllables []LyricSyllable
	Furigana  []FuriganaSyllable
}

// LyricTrack is one language/role's worth of word content.
type LyricTrack struct {
	Words    []Word
	Metadata map[TrackMetadataKey]string
}

// Language returns the track's declared language, or "" if unset.
func (t LyricTrack) Language() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata[TrackMetaLanguage]
}

// AnnotatedTrack is the richer per-line representation: a primary content
// track plus any number of translation/romanization tracks riding along
// with it. Used by parsers (chiefly TTML) that naturally produce several
// simultaneous annotation tracks per line.
type AnnotatedTrack struct {
	ContentType   ContentType
	Content       LyricTrack
	Translations  []LyricTrack
	Romanizations []LyricTrack
}

// LyricSyllable is a timed word/syllable fragment. Text is always trimmed;
// ends_with_space is the sole carrier of inter-syllable spacing.
//
// In the flat line shape a syllable doubles as the Word grain: Furigana
// rides directly on the syllable it annotates instead of requiring the
// structured shape's separate Word indirection, so QRC's KanaContent
// furigana can attach ruby text without forcing every flat-shape
// parser to build AnnotatedTracks just to carry furigana.
type LyricSyllable struct {
	Text          string
	StartMs       int64
	EndMs         int64
	DurationMs    *int64
	EndsWithSpace bool
	Furigana      []FuriganaSyllable
}

// TranslationEntry is one language's translation of a line or background
// section.
type TranslationEntry struct {
	Text string
	Lang string // "" means unspecified
}

// RomanizationEntry is one language's romanization of a line or background
// section.
type RomanizationEntry struct {
	Text string
	Lang string
}

// BackgroundSection is a secondary vocal track temporally parallel to a
// main line (e.g. ad-libs, backing vocals).
type BackgroundSection struct {
	StartMs       int64
	EndMs         int64
	Syllables     []LyricSyllable
	Translations  []TranslationEntry
	Romanizations []RomanizationEntry
}

// LyricLine is a single timed utterance. Content is carried either in the
// flat fields (MainSyllables/BackgroundSection/Translations/Romanizations/
// LineText) or in the structured Tracks slice; see EnsureFlat.
type LyricLine struct {
	StartMs   int64
	EndMs     int64
	Agent     string // "" = unset; convention: v1, v2, 合
	SongPart  string
	ItunesKey string

	// Flat shape.
	MainSyllables     []LyricSyllable
	BackgroundSection *BackgroundSection
	Translations      []TranslationEntry
	Romanizations     []RomanizationEntry
	LineText          string
	HasLineText       bool

	// Structured shape.
	Tracks []AnnotatedTrack

	// IgnoreSync marks a line whose timing should not be trusted for
	// sync-sensitive rendering. No parser in this module sets it; the
	// AMLX container stores and restores it.
	IgnoreSync bool
}

// EnsureFlat populates the flat-shape fields from Tracks when a parser
// only populated the structured shape. It is a no-op if flat content is
// already present. Lines are expected to be internally consistent: either
// shape populated, never a mix that EnsureFlat would need to merge.
func (l *LyricLine) EnsureFlat() {
	if l.HasLineText || len(l.MainSyllables) > 0 || l.BackgroundSection != nil {
		return
	}
	for _, tr := range l.Tracks {
		switch tr.ContentType {
		case ContentMain:
			for _, w := range tr.Content.Words {
				l.MainSyllables = append(l.MainSyllables, w.Syllables...)
			}
			for _, t := range tr.Translations {
				l.Translations = append(l.Translations, TranslationEntry{Text: joinWords(t.Words), Lang: t.Language()})
			}
			for _, r := range tr.Romanizations {
				l.Romanizations = append(l.Romanizations, RomanizationEntry{Text: joinWords(r.Words), Lang: r.Language()})
			}
		case ContentBackground:
			bg := &BackgroundSection{StartMs: l.StartMs, EndMs: l.EndMs}
			for _, w := range tr.Content.Words {
				bg.Syllables = append(bg.Syllables, w.Syllables...)
			}
			for _, t := range tr.Translations {
				bg.Translations = append(bg.Translations, TranslationEntry{Text: joinWords(t.Words), Lang: t.Language()})
			}
			for _, r := range tr.Romanizations {
				bg.Romanizations = append(bg.Romanizations, RomanizationEntry{Text: joinWords(r.Words), Lang: r.Language()})
			}
			if len(bg.Syllables) > 0 {
				bg.StartMs = bg.Syllables[0].StartMs
				bg.EndMs = bg.Syllables[len(bg.Syllables)-1].EndMs
			}
			l.BackgroundSection = bg
		}
	}
	if !l.HasLineText && len(l.MainSyllables) == 0 {
		// nothing to derive
		return
	}
	if !l.HasLineText {
		l.LineText = JoinSyllables(l.MainSyllables)
		l.HasLineText = true
	}
}

func joinWords(words []Word) string {
	var syls []LyricSyllable
	for _, w := range words {
		syls = append(syls, w.Syllables...)
	}
	return JoinSyllables(syls)
}

// JoinSyllables reconstructs line text from syllables per the whitespace
// invariant: join(syl.Text + (" " if EndsWithSpace else "")), then trim.
func JoinSyllables(syls []LyricSyllable) string {
	var b []byte
	for _, s := range syls {
		b = append(b, s.Text...)
		if s.EndsWithSpace {
			b = append(b, ' ')
		}
	}
	out := string(b)
	return trimSpace(out)
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isASCIISpace(s[start]) {
		start++
	}
	for end > start && isASCIISpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// ParsedSourceData is the output of any parser.
type ParsedSourceData struct {
	Lines                     []LyricLine
	RawMetadata               map[string][]string
	Warnings                  []string
	SourceFormat              LyricFormat
	IsLineTimedSource         bool
	DetectedFormattedTTML     *bool
	RawTTMLFromInput          string
	SourceName                string
}

// AddWarning appends a warning string; helper to avoid nil-slice ceremony
// at every call site.
func (p *ParsedSourceData) AddWarning(msg string) {
	p.Warnings = append(p.Warnings, msg)
}

// ensureMetadata lazily initializes RawMetadata.
func (p *ParsedSourceData) ensureMetadata() {
	if p.RawMetadata == nil {
		p.RawMetadata = make(map[string][]string)
	}
}

// AddRawMetadata appends a raw `[key:value]`-style metadata value.
func (p *ParsedSourceData) AddRawMetadata(key, value string) {
	p.ensureMetadata()
	p.RawMetadata[key] = append(p.RawMetadata[key], value)
}
