// Package applemusicjson implements the AppleMusicJson envelope: a thin
// JSON wrapper carrying a TTML document body plus an Apple Music track id.
package applemusicjson

import (
	"encoding/json"
	"strings"

	"github.com/apoint123/lyricsforge/errs"
	"github.com/apoint123/lyricsforge/formats/ttml"
	"github.com/apoint123/lyricsforge/ir"
)

type envelope struct {
	ID  string `json:"id"`
	TTT string `json:"ttml"`
}

// Parse unwraps the JSON envelope and delegates to the TTML parser for
// the lyric body.
func Parse(content string) (ir.ParsedSourceData, error) {
	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return ir.ParsedSourceData{SourceFormat: ir.FormatAppleMusicJSON},
			errs.Wrap(errs.JsonParse, err, "failed to parse AppleMusicJson envelope")
	}
	if strings.TrimSpace(env.TTT) == "" {
		return ir.ParsedSourceData{SourceFormat: ir.FormatAppleMusicJSON},
			errs.New(errs.InvalidLyricFormat, "AppleMusicJson envelope has no ttml body")
	}
	data, err := ttml.Parse(env.TTT)
	if err != nil {
		return data, err
	}
	data.SourceFormat = ir.FormatAppleMusicJSON
	if env.ID != "" {
		data.AddRawMetadata("appleMusicId", env.ID)
	}
	return data, nil
}

// Generate renders lines to TTML and wraps it in the JSON envelope,
// carrying the apple Music id through from metadata if present.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore, opts ttml.GenerationOptions) (string, error) {
	body, err := ttml.Generate(lines, metadata, opts)
	if err != nil {
		return "", err
	}
	id := ""
	if metadata != nil {
		if v, ok := metadata.GetSingleValue(ir.KeyAppleMusicID); ok {
			id = v
		}
	}
	out, err := json.Marshal(envelope{ID: id, TTT: body})
	if err != nil {
		return "", errs.Wrap(errs.JsonParse, err, "failed to marshal AppleMusicJson envelope")
	}
	return string(out), nil
}
