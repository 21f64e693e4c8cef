package processors

import (
	"regexp"
	"strings"

	"github.com/apoint123/lyricsforge/ir"
)

// agentPrefixRegex matches a leading "name:" token, where name may be
// wrapped in half-width or full-width parens. Grounded on
// agent_recognizer.rs's `AGENT_REGEX`.
var agentPrefixRegex = regexp.MustCompile(`^\s*(?:\((.+?)\)|（(.+?)）|([^\s:()（）]+))\s*[:：]\s*`)

// RecognizeAgents scans each line's text for a leading "name:" prefix.
// When a line is only that prefix, it is dropped and name becomes the
// current_agent carried onto subsequent lines until the next prefixed
// line. Otherwise the prefix is stripped from the line's main syllables
// and the line's Agent field is set to name directly.
func RecognizeAgents(lines []ir.LyricLine) []ir.LyricLine {
	result := make([]ir.LyricLine, 0, len(lines))
	currentAgent := ""

	for _, line := range lines {
		text := lineText(line)
		match := agentPrefixRegex.FindStringSubmatchIndex(text)
		if match == nil {
			if currentAgent != "" && line.Agent == "" {
				line.Agent = currentAgent
			}
			result = append(result, line)
			continue
		}

		name := submatchGroup(text, match)
		prefixRuneLen := len([]rune(text[:match[1]]))
		remaining := stripPrefixRunes(&line, prefixRuneLen)

		if remaining == "" {
			currentAgent = name
			continue
		}

		currentAgent = name
		line.Agent = name
		result = append(result, line)
	}

	return result
}

func lineText(line ir.LyricLine) string {
	if line.HasLineText {
		return line.LineText
	}
	return ir.JoinSyllables(line.MainSyllables)
}

func submatchGroup(text string, match []int) string {
	for _, pair := range [][2]int{{2, 3}, {4, 5}, {6, 7}} {
		s, e := match[pair[0]], match[pair[1]]
		if s >= 0 && e >= 0 {
			return text[s:e]
		}
	}
	return ""
}

// stripPrefixRunes removes the first n runes of text from line's main
// content, draining whole syllables first and partially trimming the
// first remaining one, mirroring agent_recognizer.rs's syllable.drain
// logic. It returns the line's remaining joined text after stripping.
func stripPrefixRunes(line *ir.LyricLine, n int) string {
	if line.HasLineText {
		runes := []rune(line.LineText)
		if n > len(runes) {
			n = len(runes)
		}
		line.LineText = strings.TrimLeft(string(runes[n:]), " ")
	}

	syls := line.MainSyllables
	drained := 0
	remaining := n
	for drained < len(syls) {
		syl := syls[drained]
		syllRunes := []rune(syl.Text)
		if remaining < len(syllRunes) {
			break
		}
		remaining -= len(syllRunes)
		drained++
		if syl.EndsWithSpace && remaining > 0 {
			remaining--
		}
	}
	syls = syls[drained:]
	if len(syls) > 0 && remaining > 0 {
		firstRunes := []rune(syls[0].Text)
		if remaining > len(firstRunes) {
			remaining = len(firstRunes)
		}
		syls[0].Text = string(firstRunes[remaining:])
	}
	line.MainSyllables = syls

	if line.HasLineText {
		return line.LineText
	}
	return strings.TrimSpace(ir.JoinSyllables(line.MainSyllables))
}
