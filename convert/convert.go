// Package convert implements the orchestrator: parse the main lyric,
// merge auxiliary tracks, run processors in their fixed order, apply
// user overrides, then generate the target format.
package convert

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/apoint123/lyricsforge/errs"
	"github.com/apoint123/lyricsforge/formats/applemusicjson"
	"github.com/apoint123/lyricsforge/formats/ass"
	"github.com/apoint123/lyricsforge/formats/enhancedlrc"
	"github.com/apoint123/lyricsforge/formats/krc"
	"github.com/apoint123/lyricsforge/formats/lqe"
	"github.com/apoint123/lyricsforge/formats/lrc"
	"github.com/apoint123/lyricsforge/formats/lyl"
	"github.com/apoint123/lyricsforge/formats/lys"
	"github.com/apoint123/lyricsforge/formats/qrc"
	"github.com/apoint123/lyricsforge/formats/spl"
	"github.com/apoint123/lyricsforge/formats/ttml"
	"github.com/apoint123/lyricsforge/formats/yrc"
	"github.com/apoint123/lyricsforge/ir"
	"github.com/apoint123/lyricsforge/merge"
	"github.com/apoint123/lyricsforge/processors"
)

// InputFile is one source document handed to the orchestrator: its raw
// content, declared format, and (for aux inputs) declared language.
type InputFile struct {
	Content  string
	Format   ir.LyricFormat
	Language string
	Filename string
}

// ConversionInput bundles the primary lyric with its auxiliary tracks
// and the target output format.
type ConversionInput struct {
	MainLyric             InputFile
	Translations          []InputFile
	Romanizations         []InputFile
	TargetFormat          ir.LyricFormat
	UserMetadataOverrides map[string][]string
}

// ConversionOptions carries per-format generation knobs and the
// processor toggles applied between merge and generation.
type ConversionOptions struct {
	OffsetMs           int64 // applied immediately after merge, before processors run
	ChineseConversion  *processors.ChineseConversionOptions
	SmoothingThreshold int64 // 0 disables smoothing

	LRC            lrc.GenerationOptions
	TTML           ttml.GenerationOptions
	AppleMusicJSON ttml.GenerationOptions
	LQE            lqe.Options
}

// ConversionResult is the generated text plus any non-fatal warnings
// accumulated while parsing and merging.
type ConversionResult struct {
	Output   string
	Warnings []string
}

type parseFunc func(content string) (ir.ParsedSourceData, error)
type generateFunc func(lines []ir.LyricLine, metadata *ir.MetadataStore) (string, error)

// registry is the format-keyed dispatch table, rebuilt per conversion
// since it closes over that call's ConversionOptions (per-format
// generation knobs). Mirrors spec.md §9's explicit preference for a
// tagged dispatch table over dynamic trait objects.
type registry struct {
	parsers    map[ir.LyricFormat]parseFunc
	generators map[ir.LyricFormat]generateFunc
}

func newRegistry(opts ConversionOptions) *registry {
	r := &registry{
		parsers:    make(map[ir.LyricFormat]parseFunc),
		generators: make(map[ir.LyricFormat]generateFunc),
	}

	r.parsers[ir.FormatLRC] = lrc.Parse
	r.parsers[ir.FormatEnhancedLRC] = enhancedlrc.Parse
	r.parsers[ir.FormatLyricifyLines] = lyl.Parse
	r.parsers[ir.FormatLYS] = lys.Parse
	r.parsers[ir.FormatQRC] = qrc.Parse
	r.parsers[ir.FormatKRC] = krc.Parse
	r.parsers[ir.FormatYRC] = yrc.Parse
	r.parsers[ir.FormatTTML] = ttml.Parse
	r.parsers[ir.FormatAppleMusicJSON] = applemusicjson.Parse
	r.parsers[ir.FormatSPL] = spl.Parse
	r.parsers[ir.FormatASS] = ass.Parse
	r.parsers[ir.FormatLQE] = lqe.Parse

	r.generators[ir.FormatLRC] = func(lines []ir.LyricLine, m *ir.MetadataStore) (string, error) {
		return lrc.Generate(lines, m, opts.LRC)
	}
	r.generators[ir.FormatEnhancedLRC] = enhancedlrc.Generate
	r.generators[ir.FormatLyricifyLines] = lyl.Generate
	r.generators[ir.FormatLYS] = lys.Generate
	r.generators[ir.FormatQRC] = qrc.Generate
	r.generators[ir.FormatKRC] = krc.Generate
	r.generators[ir.FormatYRC] = yrc.Generate
	r.generators[ir.FormatTTML] = func(lines []ir.LyricLine, m *ir.MetadataStore) (string, error) {
		return ttml.Generate(lines, m, opts.TTML)
	}
	r.generators[ir.FormatAppleMusicJSON] = func(lines []ir.LyricLine, m *ir.MetadataStore) (string, error) {
		return applemusicjson.Generate(lines, m, opts.AppleMusicJSON)
	}
	r.generators[ir.FormatSPL] = spl.Generate
	r.generators[ir.FormatASS] = ass.Generate
	r.generators[ir.FormatLQE] = func(lines []ir.LyricLine, m *ir.MetadataStore) (string, error) {
		return lqe.Generate(lines, m, opts.LQE)
	}

	return r
}

// ConvertSingleLyric parses input.MainLyric, folds in the auxiliary
// tracks, runs the fixed processor pipeline, applies user overrides,
// then dispatches to the generator for input.TargetFormat.
func ConvertSingleLyric(input ConversionInput, opts ConversionOptions) (ConversionResult, error) {
	reg := newRegistry(opts)

	mainParser, ok := reg.parsers[input.MainLyric.Format]
	if !ok {
		return ConversionResult{}, errs.New(errs.InvalidLyricFormat, fmt.Sprintf("no parser registered for format %q", input.MainLyric.Format))
	}
	primary, err := mainParser(input.MainLyric.Content)
	if err != nil {
		return ConversionResult{}, errors.Wrapf(err, "parsing main lyric (%s)", input.MainLyric.Format)
	}

	var translationAuxes, romanizationAuxes []merge.Aux
	for _, aux := range input.Translations {
		data, parseErr := parseAux(reg, aux)
		if parseErr != nil {
			primary.AddWarning(fmt.Sprintf("translation input %q: %v", aux.Filename, parseErr))
			continue
		}
		translationAuxes = append(translationAuxes, merge.Aux{Data: data, Lang: aux.Language})
	}
	for _, aux := range input.Romanizations {
		data, parseErr := parseAux(reg, aux)
		if parseErr != nil {
			primary.AddWarning(fmt.Sprintf("romanization input %q: %v", aux.Filename, parseErr))
			continue
		}
		romanizationAuxes = append(romanizationAuxes, merge.Aux{Data: data, Lang: aux.Language})
	}
	merge.FoldTranslations(&primary, translationAuxes)
	merge.FoldRomanizations(&primary, romanizationAuxes)

	ir.ApplyOffset(primary.Lines, opts.OffsetMs)

	lines := processors.RecognizeAgents(primary.Lines)
	if opts.ChineseConversion != nil {
		processors.ConvertChinese(lines, *opts.ChineseConversion)
	}
	if opts.SmoothingThreshold > 0 {
		processors.SmoothSyllables(lines, opts.SmoothingThreshold)
	}

	metadata := ir.FromParsedSourceData(&primary)
	metadata.DeduplicateValues()
	for rawKey, values := range input.UserMetadataOverrides {
		metadata.SetMultiple(ir.CanonicalizeKey(rawKey), values)
	}

	generator, ok := reg.generators[input.TargetFormat]
	if !ok {
		return ConversionResult{}, errs.New(errs.InvalidLyricFormat, fmt.Sprintf("no generator registered for format %q", input.TargetFormat))
	}
	output, err := generator(lines, metadata)
	if err != nil {
		return ConversionResult{}, errors.Wrapf(err, "generating target format (%s)", input.TargetFormat)
	}

	return ConversionResult{Output: output, Warnings: primary.Warnings}, nil
}

func parseAux(reg *registry, aux InputFile) (*ir.ParsedSourceData, error) {
	parser, ok := reg.parsers[aux.Format]
	if !ok {
		return nil, errs.New(errs.InvalidLyricFormat, fmt.Sprintf("no parser registered for format %q", aux.Format))
	}
	data, err := parser(aux.Content)
	if err != nil {
		return nil, err
	}
	return &data, nil
}
