// Package amlx implements the AMLX binary container: a compact,
// string-pooled encoding of a parsed lyric, adapted from the teacher's
// TTML-specific binary codec to carry this module's own IR instead.
package amlx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/apoint123/lyricsforge/ir"
)

const (
	magic        = "AMLX"
	version byte = 0x02 // v2: carries ir.ParsedSourceData, not TTMLLyric
)

const (
	lineFlagHasAgent uint8 = 1 << iota
	lineFlagHasSongPart
	lineFlagHasItunesKey
	lineFlagHasLineText
	lineFlagHasBackground
	lineFlagIgnoreSync
	lineFlagMask = lineFlagHasAgent | lineFlagHasSongPart | lineFlagHasItunesKey |
		lineFlagHasLineText | lineFlagHasBackground | lineFlagIgnoreSync
)

const (
	syllableFlagEndsWithSpace uint8 = 1 << iota
	syllableFlagHasDuration
	syllableFlagHasFurigana
	syllableFlagMask = syllableFlagEndsWithSpace | syllableFlagHasDuration | syllableFlagHasFurigana
)

// stringPool assigns stable IDs to strings, deduplicating on insert.
type stringPool struct {
	values []string
	index  map[string]uint64
}

func newStringPool() *stringPool {
	return &stringPool{index: map[string]uint64{}}
}

func (p *stringPool) add(s string) uint64 {
	if id, ok := p.index[s]; ok {
		return id
	}
	id := uint64(len(p.values))
	p.values = append(p.values, s)
	p.index[s] = id
	return id
}

// Encode serializes data into the AMLX binary format.
func Encode(data *ir.ParsedSourceData) ([]byte, error) {
	pool := newStringPool()
	collectStrings(data, pool)

	header := encodeHeader(data.RawMetadata, pool)
	stringSection := encodeStringPool(pool.values)
	body, err := encodeLines(data.Lines, pool)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(magic)
	out.WriteByte(version)
	out.WriteByte(byte(len(data.SourceFormat)))
	out.WriteString(string(data.SourceFormat))
	writeUvarint(&out, uint64(header.Len()))
	out.Write(header.Bytes())
	out.Write(stringSection.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// Decode parses an AMLX binary blob back into a ParsedSourceData.
func Decode(raw []byte) (ir.ParsedSourceData, error) {
	r := bytes.NewReader(raw)

	magicBytes := make([]byte, len(magic))
	if _, err := io.ReadFull(r, magicBytes); err != nil {
		return ir.ParsedSourceData{}, fmt.Errorf("read magic: %w", err)
	}
	if string(magicBytes) != magic {
		return ir.ParsedSourceData{}, fmt.Errorf("invalid magic: %q", magicBytes)
	}

	v, err := r.ReadByte()
	if err != nil {
		return ir.ParsedSourceData{}, fmt.Errorf("read version: %w", err)
	}
	if v != version {
		return ir.ParsedSourceData{}, fmt.Errorf("unsupported AMLX version: %d", v)
	}

	formatLen, err := r.ReadByte()
	if err != nil {
		return ir.ParsedSourceData{}, fmt.Errorf("read source format length: %w", err)
	}
	formatBytes, err := readBytes(r, uint64(formatLen), "source format")
	if err != nil {
		return ir.ParsedSourceData{}, err
	}

	headerSize, err := readUvarint(r)
	if err != nil {
		return ir.ParsedSourceData{}, fmt.Errorf("read header size: %w", err)
	}
	headerBytes, err := readBytes(r, headerSize, "header section")
	if err != nil {
		return ir.ParsedSourceData{}, err
	}

	pool, err := decodeStringPool(r)
	if err != nil {
		return ir.ParsedSourceData{}, err
	}

	rawMetadata, err := decodeHeader(headerBytes, pool)
	if err != nil {
		return ir.ParsedSourceData{}, err
	}

	lines, err := decodeLines(r, pool)
	if err != nil {
		return ir.ParsedSourceData{}, err
	}

	return ir.ParsedSourceData{
		SourceFormat: ir.LyricFormat(formatBytes),
		RawMetadata:  rawMetadata,
		Lines:        lines,
	}, nil
}

func collectStrings(data *ir.ParsedSourceData, pool *stringPool) {
	keys := sortedKeys(data.RawMetadata)
	for _, k := range keys {
		pool.add(k)
		for _, v := range data.RawMetadata[k] {
			pool.add(v)
		}
	}
	for _, line := range data.Lines {
		collectLineStrings(&line, pool)
	}
}

func collectLineStrings(line *ir.LyricLine, pool *stringPool) {
	if line.Agent != "" {
		pool.add(line.Agent)
	}
	if line.SongPart != "" {
		pool.add(line.SongPart)
	}
	if line.ItunesKey != "" {
		pool.add(line.ItunesKey)
	}
	if line.HasLineText {
		pool.add(line.LineText)
	}
	for _, s := range line.MainSyllables {
		collectSyllableStrings(&s, pool)
	}
	for _, t := range line.Translations {
		pool.add(t.Text)
		if t.Lang != "" {
			pool.add(t.Lang)
		}
	}
	for _, r := range line.Romanizations {
		pool.add(r.Text)
		if r.Lang != "" {
			pool.add(r.Lang)
		}
	}
	if bg := line.BackgroundSection; bg != nil {
		for _, s := range bg.Syllables {
			collectSyllableStrings(&s, pool)
		}
		for _, t := range bg.Translations {
			pool.add(t.Text)
			if t.Lang != "" {
				pool.add(t.Lang)
			}
		}
		for _, r := range bg.Romanizations {
			pool.add(r.Text)
			if r.Lang != "" {
				pool.add(r.Lang)
			}
		}
	}
}

func collectSyllableStrings(s *ir.LyricSyllable, pool *stringPool) {
	pool.add(s.Text)
	for _, f := range s.Furigana {
		pool.add(f.Text)
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeHeader(rawMetadata map[string][]string, pool *stringPool) *bytes.Buffer {
	var section bytes.Buffer
	keys := sortedKeys(rawMetadata)
	writeUvarint(&section, uint64(len(keys)))
	for _, k := range keys {
		writeUvarint(&section, pool.add(k))
		values := rawMetadata[k]
		writeUvarint(&section, uint64(len(values)))
		for _, v := range values {
			writeUvarint(&section, pool.add(v))
		}
	}
	return &section
}

func decodeHeader(header []byte, pool []string) (map[string][]string, error) {
	r := bytes.NewReader(header)
	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read metadata count: %w", err)
	}
	result := make(map[string][]string, count)
	for i := uint64(0); i < count; i++ {
		keyID, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read metadata[%d].key: %w", i, err)
		}
		key, err := stringByID(pool, keyID)
		if err != nil {
			return nil, err
		}
		valueCount, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read metadata[%d].value_count: %w", i, err)
		}
		values := make([]string, 0, valueCount)
		for j := uint64(0); j < valueCount; j++ {
			valueID, err := readUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("read metadata[%d].value[%d]: %w", i, j, err)
			}
			v, err := stringByID(pool, valueID)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		result[key] = values
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("header section has %d trailing bytes", r.Len())
	}
	return result, nil
}

func encodeStringPool(values []string) *bytes.Buffer {
	var section bytes.Buffer
	writeUvarint(&section, uint64(len(values)))
	for _, v := range values {
		raw := []byte(v)
		writeUvarint(&section, uint64(len(raw)))
		section.Write(raw)
	}
	return &section
}

func decodeStringPool(r *bytes.Reader) ([]string, error) {
	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read string pool count: %w", err)
	}
	values := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		length, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read string[%d].length: %w", i, err)
		}
		raw, err := readBytes(r, length, fmt.Sprintf("string[%d].bytes", i))
		if err != nil {
			return nil, err
		}
		values = append(values, string(raw))
	}
	return values, nil
}

func encodeLines(lines []ir.LyricLine, pool *stringPool) (*bytes.Buffer, error) {
	var section bytes.Buffer
	writeUvarint(&section, uint64(len(lines)))
	for i := range lines {
		if err := encodeLine(&section, &lines[i], pool); err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, err)
		}
	}
	return &section, nil
}

func encodeLine(w *bytes.Buffer, line *ir.LyricLine, pool *stringPool) error {
	if line.StartMs < 0 || line.EndMs < line.StartMs {
		return errors.New("invalid line timing")
	}
	writeUvarint(w, uint64(line.StartMs))
	writeUvarint(w, uint64(line.EndMs))

	var flags uint8
	if line.Agent != "" {
		flags |= lineFlagHasAgent
	}
	if line.SongPart != "" {
		flags |= lineFlagHasSongPart
	}
	if line.ItunesKey != "" {
		flags |= lineFlagHasItunesKey
	}
	if line.HasLineText {
		flags |= lineFlagHasLineText
	}
	if line.BackgroundSection != nil {
		flags |= lineFlagHasBackground
	}
	if line.IgnoreSync {
		flags |= lineFlagIgnoreSync
	}
	w.WriteByte(flags)

	if line.Agent != "" {
		writeUvarint(w, pool.add(line.Agent))
	}
	if line.SongPart != "" {
		writeUvarint(w, pool.add(line.SongPart))
	}
	if line.ItunesKey != "" {
		writeUvarint(w, pool.add(line.ItunesKey))
	}
	if line.HasLineText {
		writeUvarint(w, pool.add(line.LineText))
	}

	if err := encodeSyllables(w, line.MainSyllables, line.StartMs, pool); err != nil {
		return err
	}
	encodeEntries(w, line.Translations, pool)
	encodeRomanizations(w, line.Romanizations, pool)

	if bg := line.BackgroundSection; bg != nil {
		if bg.StartMs < 0 || bg.EndMs < bg.StartMs {
			return errors.New("invalid background section timing")
		}
		writeUvarint(w, uint64(bg.StartMs))
		writeUvarint(w, uint64(bg.EndMs))
		if err := encodeSyllables(w, bg.Syllables, bg.StartMs, pool); err != nil {
			return err
		}
		encodeEntries(w, bg.Translations, pool)
		encodeRomanizations(w, bg.Romanizations, pool)
	}

	return nil
}

func encodeEntries(w *bytes.Buffer, entries []ir.TranslationEntry, pool *stringPool) {
	writeUvarint(w, uint64(len(entries)))
	for _, e := range entries {
		writeUvarint(w, pool.add(e.Text))
		if e.Lang == "" {
			w.WriteByte(0)
		} else {
			w.WriteByte(1)
			writeUvarint(w, pool.add(e.Lang))
		}
	}
}

func encodeRomanizations(w *bytes.Buffer, entries []ir.RomanizationEntry, pool *stringPool) {
	writeUvarint(w, uint64(len(entries)))
	for _, e := range entries {
		writeUvarint(w, pool.add(e.Text))
		if e.Lang == "" {
			w.WriteByte(0)
		} else {
			w.WriteByte(1)
			writeUvarint(w, pool.add(e.Lang))
		}
	}
}

func encodeSyllables(w *bytes.Buffer, syls []ir.LyricSyllable, baseMs int64, pool *stringPool) error {
	writeUvarint(w, uint64(len(syls)))
	for i, s := range syls {
		if s.StartMs < baseMs || s.EndMs < s.StartMs {
			return fmt.Errorf("syllable[%d] has invalid timing relative to section start", i)
		}
		writeUvarint(w, uint64(s.StartMs-baseMs))
		writeUvarint(w, uint64(s.EndMs-s.StartMs))
		writeUvarint(w, pool.add(s.Text))

		var flags uint8
		if s.EndsWithSpace {
			flags |= syllableFlagEndsWithSpace
		}
		if s.DurationMs != nil {
			flags |= syllableFlagHasDuration
		}
		if len(s.Furigana) > 0 {
			flags |= syllableFlagHasFurigana
		}
		w.WriteByte(flags)

		if s.DurationMs != nil {
			writeUvarint(w, uint64(*s.DurationMs))
		}
		if len(s.Furigana) > 0 {
			writeUvarint(w, uint64(len(s.Furigana)))
			for _, f := range s.Furigana {
				writeUvarint(w, pool.add(f.Text))
				if f.HasTiming {
					w.WriteByte(1)
					writeUvarint(w, uint64(f.StartMs))
					writeUvarint(w, uint64(f.EndMs))
				} else {
					w.WriteByte(0)
				}
			}
		}
	}
	return nil
}

func decodeLines(r *bytes.Reader, pool []string) ([]ir.LyricLine, error) {
	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read line count: %w", err)
	}
	lines := make([]ir.LyricLine, 0, count)
	for i := uint64(0); i < count; i++ {
		line, err := decodeLine(r, pool)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func decodeLine(r *bytes.Reader, pool []string) (ir.LyricLine, error) {
	startMs, err := readUvarint(r)
	if err != nil {
		return ir.LyricLine{}, fmt.Errorf("read start_ms: %w", err)
	}
	endMs, err := readUvarint(r)
	if err != nil {
		return ir.LyricLine{}, fmt.Errorf("read end_ms: %w", err)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return ir.LyricLine{}, fmt.Errorf("read line flags: %w", err)
	}
	if flags&^lineFlagMask != 0 {
		return ir.LyricLine{}, fmt.Errorf("reserved line flags set: 0x%02x", flags&^lineFlagMask)
	}

	line := ir.LyricLine{StartMs: int64(startMs), EndMs: int64(endMs), IgnoreSync: flags&lineFlagIgnoreSync != 0}

	if flags&lineFlagHasAgent != 0 {
		if line.Agent, err = readPooledString(r, pool); err != nil {
			return ir.LyricLine{}, err
		}
	}
	if flags&lineFlagHasSongPart != 0 {
		if line.SongPart, err = readPooledString(r, pool); err != nil {
			return ir.LyricLine{}, err
		}
	}
	if flags&lineFlagHasItunesKey != 0 {
		if line.ItunesKey, err = readPooledString(r, pool); err != nil {
			return ir.LyricLine{}, err
		}
	}
	if flags&lineFlagHasLineText != 0 {
		if line.LineText, err = readPooledString(r, pool); err != nil {
			return ir.LyricLine{}, err
		}
		line.HasLineText = true
	}

	if line.MainSyllables, err = decodeSyllables(r, line.StartMs, pool); err != nil {
		return ir.LyricLine{}, err
	}
	if line.Translations, err = decodeTranslations(r, pool); err != nil {
		return ir.LyricLine{}, err
	}
	if line.Romanizations, err = decodeRomanizations(r, pool); err != nil {
		return ir.LyricLine{}, err
	}

	if flags&lineFlagHasBackground != 0 {
		bgStart, err := readUvarint(r)
		if err != nil {
			return ir.LyricLine{}, fmt.Errorf("read background start_ms: %w", err)
		}
		bgEnd, err := readUvarint(r)
		if err != nil {
			return ir.LyricLine{}, fmt.Errorf("read background end_ms: %w", err)
		}
		bg := &ir.BackgroundSection{StartMs: int64(bgStart), EndMs: int64(bgEnd)}
		if bg.Syllables, err = decodeSyllables(r, bg.StartMs, pool); err != nil {
			return ir.LyricLine{}, err
		}
		if bg.Translations, err = decodeTranslations(r, pool); err != nil {
			return ir.LyricLine{}, err
		}
		if bg.Romanizations, err = decodeRomanizations(r, pool); err != nil {
			return ir.LyricLine{}, err
		}
		line.BackgroundSection = bg
	}

	return line, nil
}

func decodeTranslations(r *bytes.Reader, pool []string) ([]ir.TranslationEntry, error) {
	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read translation count: %w", err)
	}
	entries := make([]ir.TranslationEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		textID, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read translation[%d].text: %w", i, err)
		}
		text, err := stringByID(pool, textID)
		if err != nil {
			return nil, err
		}
		hasLang, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read translation[%d].has_lang: %w", i, err)
		}
		var lang string
		if hasLang != 0 {
			langID, err := readUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("read translation[%d].lang: %w", i, err)
			}
			if lang, err = stringByID(pool, langID); err != nil {
				return nil, err
			}
		}
		entries = append(entries, ir.TranslationEntry{Text: text, Lang: lang})
	}
	return entries, nil
}

func decodeRomanizations(r *bytes.Reader, pool []string) ([]ir.RomanizationEntry, error) {
	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read romanization count: %w", err)
	}
	entries := make([]ir.RomanizationEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		textID, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read romanization[%d].text: %w", i, err)
		}
		text, err := stringByID(pool, textID)
		if err != nil {
			return nil, err
		}
		hasLang, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read romanization[%d].has_lang: %w", i, err)
		}
		var lang string
		if hasLang != 0 {
			langID, err := readUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("read romanization[%d].lang: %w", i, err)
			}
			if lang, err = stringByID(pool, langID); err != nil {
				return nil, err
			}
		}
		entries = append(entries, ir.RomanizationEntry{Text: text, Lang: lang})
	}
	return entries, nil
}

func decodeSyllables(r *bytes.Reader, baseMs int64, pool []string) ([]ir.LyricSyllable, error) {
	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("read syllable count: %w", err)
	}
	syls := make([]ir.LyricSyllable, 0, count)
	for i := uint64(0); i < count; i++ {
		deltaStart, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read syllable[%d].delta_start: %w", i, err)
		}
		duration, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read syllable[%d].duration: %w", i, err)
		}
		textID, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("read syllable[%d].text: %w", i, err)
		}
		text, err := stringByID(pool, textID)
		if err != nil {
			return nil, err
		}
		flags, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read syllable[%d].flags: %w", i, err)
		}
		if flags&^syllableFlagMask != 0 {
			return nil, fmt.Errorf("syllable[%d] reserved flags set: 0x%02x", i, flags&^syllableFlagMask)
		}

		startMs := baseMs + int64(deltaStart)
		syl := ir.LyricSyllable{
			Text:          text,
			StartMs:       startMs,
			EndMs:         startMs + int64(duration),
			EndsWithSpace: flags&syllableFlagEndsWithSpace != 0,
		}

		if flags&syllableFlagHasDuration != 0 {
			durMs, err := readUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("read syllable[%d].duration_override: %w", i, err)
			}
			d := int64(durMs)
			syl.DurationMs = &d
		}

		if flags&syllableFlagHasFurigana != 0 {
			furiganaCount, err := readUvarint(r)
			if err != nil {
				return nil, fmt.Errorf("read syllable[%d].furigana_count: %w", i, err)
			}
			syl.Furigana = make([]ir.FuriganaSyllable, 0, furiganaCount)
			for j := uint64(0); j < furiganaCount; j++ {
				textID, err := readUvarint(r)
				if err != nil {
					return nil, fmt.Errorf("read syllable[%d].furigana[%d].text: %w", i, j, err)
				}
				furiganaText, err := stringByID(pool, textID)
				if err != nil {
					return nil, err
				}
				hasTiming, err := r.ReadByte()
				if err != nil {
					return nil, fmt.Errorf("read syllable[%d].furigana[%d].has_timing: %w", i, j, err)
				}
				f := ir.FuriganaSyllable{Text: furiganaText}
				if hasTiming != 0 {
					f.HasTiming = true
					start, err := readUvarint(r)
					if err != nil {
						return nil, fmt.Errorf("read syllable[%d].furigana[%d].start_ms: %w", i, j, err)
					}
					end, err := readUvarint(r)
					if err != nil {
						return nil, fmt.Errorf("read syllable[%d].furigana[%d].end_ms: %w", i, j, err)
					}
					f.StartMs, f.EndMs = int64(start), int64(end)
				}
				syl.Furigana = append(syl.Furigana, f)
			}
		}

		syls = append(syls, syl)
	}
	return syls, nil
}

func readPooledString(r *bytes.Reader, pool []string) (string, error) {
	id, err := readUvarint(r)
	if err != nil {
		return "", fmt.Errorf("read string id: %w", err)
	}
	return stringByID(pool, id)
}

func stringByID(pool []string, id uint64) (string, error) {
	if id >= uint64(len(pool)) {
		return "", fmt.Errorf("string id %d out of bounds (pool size %d)", id, len(pool))
	}
	return pool[id], nil
}

func writeUvarint(buf *bytes.Buffer, value uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], value)
	buf.Write(tmp[:n])
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, io.ErrUnexpectedEOF
	}
	return 0, err
}

func readBytes(r *bytes.Reader, length uint64, field string) ([]byte, error) {
	if length > uint64(r.Len()) {
		return nil, fmt.Errorf("%s exceeds remaining bytes", field)
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return raw, nil
}
