package ir

import (
	"sort"
	"strings"
)

// CanonicalMetadataKey is the closed set of metadata keys the engine
// normalizes onto; anything else is carried as Custom.
type CanonicalMetadataKey struct {
	name   string
	custom bool
}

func (k CanonicalMetadataKey) String() string {
	if k.custom {
		return k.name
	}
	return k.name
}

// IsCustom reports whether this key fell outside the canonical set.
func (k CanonicalMetadataKey) IsCustom() bool { return k.custom }

var (
	KeyTitle                 = CanonicalMetadataKey{name: "title"}
	KeyArtist                = CanonicalMetadataKey{name: "artist"}
	KeyAlbum                 = CanonicalMetadataKey{name: "album"}
	KeySongwriters           = CanonicalMetadataKey{name: "songwriters"}
	KeyLanguage              = CanonicalMetadataKey{name: "language"}
	KeyOffset                = CanonicalMetadataKey{name: "offset"}
	KeyAppleMusicID          = CanonicalMetadataKey{name: "appleMusicId"}
	KeyNCMMusicID            = CanonicalMetadataKey{name: "ncmMusicId"}
	KeyQQMusicID             = CanonicalMetadataKey{name: "qqMusicId"}
	KeySpotifyID             = CanonicalMetadataKey{name: "spotifyId"}
	KeyISRC                  = CanonicalMetadataKey{name: "isrc"}
	KeyTTMLAuthorGithub      = CanonicalMetadataKey{name: "ttmlAuthorGithub"}
	KeyTTMLAuthorGithubLogin = CanonicalMetadataKey{name: "ttmlAuthorGithubLogin"}
)

// Custom wraps an unrecognized metadata key.
func Custom(name string) CanonicalMetadataKey {
	return CanonicalMetadataKey{name: name, custom: true}
}

var aliasTable = map[string]CanonicalMetadataKey{
	"title": KeyTitle, "ti": KeyTitle, "musicname": KeyTitle,
	"artist": KeyArtist, "ar": KeyArtist, "artists": KeyArtist,
	"album": KeyAlbum, "al": KeyAlbum,
	"songwriters": KeySongwriters, "by": KeySongwriters,
	"language": KeyLanguage,
	"offset":   KeyOffset,
	"applemusicid": KeyAppleMusicID,
	"ncmmusicid":   KeyNCMMusicID,
	"qqmusicid":    KeyQQMusicID,
	"spotifyid":    KeySpotifyID,
	"isrc":         KeyISRC,
	"ttmlauthorgithub":      KeyTTMLAuthorGithub,
	"ttmlauthorgithublogin": KeyTTMLAuthorGithubLogin,
}

// CanonicalizeKey resolves a raw metadata tag name (case-insensitive) to
// its canonical key, falling back to Custom.
func CanonicalizeKey(raw string) CanonicalMetadataKey {
	if k, ok := aliasTable[strings.ToLower(raw)]; ok {
		return k
	}
	return Custom(raw)
}

// MetadataStore is a canonical-key, multi-valued metadata container.
type MetadataStore struct {
	data map[string][]string
	keys map[string]CanonicalMetadataKey // name -> key, to preserve custom-ness
}

// NewMetadataStore returns an empty store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{data: make(map[string][]string), keys: make(map[string]CanonicalMetadataKey)}
}

func (m *MetadataStore) ensure() {
	if m.data == nil {
		m.data = make(map[string][]string)
	}
	if m.keys == nil {
		m.keys = make(map[string]CanonicalMetadataKey)
	}
}

// Add appends a value for key, trimming it and skipping if empty after
// trim.
func (m *MetadataStore) Add(key CanonicalMetadataKey, value string) {
	m.ensure()
	v := strings.TrimSpace(value)
	if v == "" {
		return
	}
	m.keys[key.name] = key
	m.data[key.name] = append(m.data[key.name], v)
}

// SetSingle overwrites key with exactly one value (or clears it if value
// is empty after trim).
func (m *MetadataStore) SetSingle(key CanonicalMetadataKey, value string) {
	m.ensure()
	v := strings.TrimSpace(value)
	m.keys[key.name] = key
	if v == "" {
		delete(m.data, key.name)
		return
	}
	m.data[key.name] = []string{v}
}

// SetMultiple overwrites key with the given values, each trimmed; empty
// values are dropped.
func (m *MetadataStore) SetMultiple(key CanonicalMetadataKey, values []string) {
	m.ensure()
	m.keys[key.name] = key
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		delete(m.data, key.name)
		return
	}
	m.data[key.name] = out
}

// GetSingleValue returns the first value for key, if any.
func (m *MetadataStore) GetSingleValue(key CanonicalMetadataKey) (string, bool) {
	vs := m.data[key.name]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// GetMultipleValues returns all values for key.
func (m *MetadataStore) GetMultipleValues(key CanonicalMetadataKey) []string {
	return append([]string(nil), m.data[key.name]...)
}

// GetAllData returns every canonical key with at least one value.
func (m *MetadataStore) GetAllData() map[CanonicalMetadataKey][]string {
	out := make(map[CanonicalMetadataKey][]string, len(m.data))
	for name, vs := range m.data {
		if len(vs) == 0 {
			continue
		}
		k := m.keys[name]
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// Clear empties the store.
func (m *MetadataStore) Clear() {
	m.data = make(map[string][]string)
	m.keys = make(map[string]CanonicalMetadataKey)
}

// Remove deletes all values for key.
func (m *MetadataStore) Remove(key CanonicalMetadataKey) {
	delete(m.data, key.name)
}

// DeduplicateValues trims (already trimmed on insert, but defensive),
// drops empties, sorts and dedups every key's value list; keys left with
// zero values are removed entirely.
func (m *MetadataStore) DeduplicateValues() {
	for name, vs := range m.data {
		seen := make(map[string]struct{}, len(vs))
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		sort.Strings(out)
		if len(out) == 0 {
			delete(m.data, name)
			delete(m.keys, name)
			continue
		}
		m.data[name] = out
	}
}

// lrcHeaderTags is the exact canonical subset, and order, GenerateLRCHeader
// emits.
var lrcHeaderTags = []struct {
	tag string
	key CanonicalMetadataKey
}{
	{"ti", KeyTitle},
	{"ar", KeyArtist},
	{"al", KeyAlbum},
	{"by", KeySongwriters},
	{"language", KeyLanguage},
	{"offset", KeyOffset},
}

// GenerateLRCHeader emits the canonical ti/ar/al/by/language/offset tags as
// `[tag:value]` lines, multi-values joined with "/" except offset. offset
// is emitted whenever its key is present in the store at all, even if its
// value trims to empty; every other tag is skipped when empty.
func (m *MetadataStore) GenerateLRCHeader() []string {
	var out []string
	for _, ent := range lrcHeaderTags {
		vs, present := m.data[ent.key.name]
		if ent.key.name == KeyOffset.name {
			_, hasKey := m.keys[ent.key.name]
			if !present && !hasKey {
				continue
			}
			val := ""
			if len(vs) > 0 {
				val = vs[0]
			}
			out = append(out, "["+ent.tag+":"+val+"]")
			continue
		}
		if !present || len(vs) == 0 {
			continue
		}
		out = append(out, "["+ent.tag+":"+strings.Join(vs, "/")+"]")
	}
	return out
}

// FromParsedSourceData seeds a MetadataStore from a parser's raw metadata,
// canonicalizing aliases and leaving unrecognized tags as Custom.
func FromParsedSourceData(p *ParsedSourceData) *MetadataStore {
	m := NewMetadataStore()
	for rawKey, values := range p.RawMetadata {
		key := CanonicalizeKey(rawKey)
		for _, v := range values {
			m.Add(key, v)
		}
	}
	return m
}
