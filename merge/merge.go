// Package merge aligns auxiliary translation/romanization tracks onto a
// primary lyric's lines by timestamp, the way the orchestrator folds
// independently-parsed InputFiles together before processors run.
package merge

import (
	"fmt"

	"github.com/apoint123/lyricsforge/ir"
)

// ToleranceMs is the maximum distance between an auxiliary line's start_ms
// and a primary line's start_ms for the two to be considered aligned.
const ToleranceMs = 20

// Aux is one auxiliary source to fold onto the primary lines, tagged with
// its role and declared language.
type Aux struct {
	Data *ir.ParsedSourceData
	Lang string
}

// FoldTranslations aligns each aux ParsedSourceData's lines onto primary by
// nearest start_ms within ToleranceMs, appending a TranslationEntry per
// matched line. Unmatched aux lines are reported as warnings on primary.
func FoldTranslations(primary *ir.ParsedSourceData, auxes []Aux) {
	fold(primary, auxes, func(line *ir.LyricLine, text, lang string) {
		line.Translations = append(line.Translations, ir.TranslationEntry{Text: text, Lang: lang})
	})
}

// FoldRomanizations aligns each aux ParsedSourceData's lines onto primary
// the same way FoldTranslations does, appending RomanizationEntry values.
func FoldRomanizations(primary *ir.ParsedSourceData, auxes []Aux) {
	fold(primary, auxes, func(line *ir.LyricLine, text, lang string) {
		line.Romanizations = append(line.Romanizations, ir.RomanizationEntry{Text: text, Lang: lang})
	})
}

func fold(primary *ir.ParsedSourceData, auxes []Aux, apply func(line *ir.LyricLine, text, lang string)) {
	for _, aux := range auxes {
		if aux.Data == nil {
			continue
		}
		for _, auxLine := range aux.Data.Lines {
			text := auxLine.LineText
			if text == "" {
				text = ir.JoinSyllables(auxLine.MainSyllables)
			}
			if text == "" {
				continue
			}
			idx, ok := nearestWithin(primary.Lines, auxLine.StartMs, ToleranceMs)
			if !ok {
				primary.AddWarning(fmt.Sprintf("merge: no primary line within %dms of aux line at %dms, dropped.", ToleranceMs, auxLine.StartMs))
				continue
			}
			apply(&primary.Lines[idx], text, aux.Lang)
		}
	}
}

// nearestWithin finds the index of the line in lines whose start_ms is
// closest to targetMs, returning ok=false if none falls within tolerance.
func nearestWithin(lines []ir.LyricLine, targetMs int64, toleranceMs int64) (int, bool) {
	best := -1
	bestDist := int64(-1)
	for i, l := range lines {
		dist := l.StartMs - targetMs
		if dist < 0 {
			dist = -dist
		}
		if dist > toleranceMs {
			continue
		}
		if best == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}
