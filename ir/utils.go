package ir

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// offsetTimestamp shifts a millisecond timestamp by a signed delta,
// clamping at zero (timestamps cannot go negative).
func offsetTimestamp(ms int64, offsetMs int64) int64 {
	v := ms + offsetMs
	if v < 0 {
		return 0
	}
	return v
}

// ApplyOffset shifts every timestamp in lines (line bounds, main syllables,
// and any background section and its syllables) by offsetMs. A zero offset
// is a no-op. Mutates in place.
func ApplyOffset(lines []LyricLine, offsetMs int64) {
	if offsetMs == 0 {
		return
	}
	for i := range lines {
		l := &lines[i]
		l.StartMs = offsetTimestamp(l.StartMs, offsetMs)
		l.EndMs = offsetTimestamp(l.EndMs, offsetMs)

		for j := range l.MainSyllables {
			s := &l.MainSyllables[j]
			s.StartMs = offsetTimestamp(s.StartMs, offsetMs)
			s.EndMs = offsetTimestamp(s.EndMs, offsetMs)
		}

		if bg := l.BackgroundSection; bg != nil {
			bg.StartMs = offsetTimestamp(bg.StartMs, offsetMs)
			bg.EndMs = offsetTimestamp(bg.EndMs, offsetMs)
			for j := range bg.Syllables {
				s := &bg.Syllables[j]
				s.StartMs = offsetTimestamp(s.StartMs, offsetMs)
				s.EndMs = offsetTimestamp(s.EndMs, offsetMs)
			}
		}
	}
}

var metadataTagRegex = regexp.MustCompile(`^\[(?P<key>[a-zA-Z]+):(?P<value>.*)\]$`)

// ParseAndStoreMetadataTag attempts to parse line as an LRC-style
// `[key:value]` metadata tag. On success the value is stored into
// rawMetadata and true is returned; otherwise false, leaving rawMetadata
// untouched.
func ParseAndStoreMetadataTag(line string, rawMetadata map[string][]string) bool {
	m := metadataTagRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	key := m[metadataTagRegex.SubexpIndex("key")]
	value := strings.TrimSpace(m[metadataTagRegex.SubexpIndex("value")])
	rawMetadata[key] = append(rawMetadata[key], value)
	return true
}

// ProcessSyllableText splits the raw text slice found between two
// timestamps into clean (trimmed) text and a trailing-space flag.
//
// If raw_text_slice has leading whitespace, the previous syllable (the
// last entry of syllables, if any) is retroactively marked
// EndsWithSpace. If the clean text is empty (the slice was pure
// whitespace, or empty), this returns false and does not produce a new
// syllable.
func ProcessSyllableText(rawTextSlice string, syllables []LyricSyllable) (cleanText string, endsWithSpace bool, ok bool) {
	var hasLeadingSpace bool
	if r := []rune(rawTextSlice); len(r) > 0 {
		hasLeadingSpace = unicode.IsSpace(r[0])
		endsWithSpace = unicode.IsSpace(r[len(r)-1])
	}
	clean := strings.TrimSpace(rawTextSlice)

	if hasLeadingSpace && len(syllables) > 0 {
		syllables[len(syllables)-1].EndsWithSpace = true
	}

	if clean == "" {
		return "", false, false
	}
	return clean, endsWithSpace, true
}

// NormalizeTextWhitespace trims text and collapses internal whitespace
// runs to single spaces, after normalizing to NFC so combining-mark
// sequences that render identically compare equal.
func NormalizeTextWhitespace(text string) string {
	nfc := norm.NFC.String(text)
	trimmed := strings.TrimSpace(nfc)
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
