// Package ttml parses and generates TTML lyric documents, including the
// Apple Music dialect (ttm:role sections, itunes: attributes) that is the
// richest format in the catalog: word timing, background vocals,
// translations and romanizations all live natively in its span tree.
package ttml

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/apoint123/lyricsforge/errs"
	"github.com/apoint123/lyricsforge/internal/xmlnode"
	"github.com/apoint123/lyricsforge/ir"
)

const (
	nsTTML   = "http://www.w3.org/ns/ttml"
	nsTTM    = "http://www.w3.org/ns/ttml#metadata"
	nsItunes = "http://music.apple.com/lyric-ttml-internal"
	nsAMLL   = "http://www.example.com/ns/amll"
)

// Parse reads a TTML document into a ParsedSourceData. Content is parsed
// into the flat LyricLine shape (MainSyllables/BackgroundSection/
// Translations/Romanizations).
func Parse(content string) (ir.ParsedSourceData, error) {
	data := ir.ParsedSourceData{SourceFormat: ir.FormatTTML, RawTTMLFromInput: content}

	formatted := detectFormatted(content)
	data.DetectedFormattedTTML = &formatted

	doc, err := xmlnode.ParseDocument(content)
	if err != nil {
		return data, errs.Wrap(errs.Xml, err, "failed to parse TTML document")
	}

	agentNames := collectAgentDeclarations(doc)

	var lines []ir.LyricLine
	for _, p := range findBodyParagraphs(doc) {
		line, err := parseP(p, formatted, agentNames, &data)
		if err != nil {
			return data, err
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].StartMs < lines[j].StartMs })
	data.Lines = lines
	return data, nil
}

// detectFormatted implements spec §4.4's heuristic: the document counts
// as pretty-printed the moment any inter-tag text run is pure whitespace
// containing a newline.
func detectFormatted(content string) bool {
	inTag := false
	runStart := -1
	for i, r := range content {
		switch {
		case r == '<':
			if runStart >= 0 {
				run := content[runStart:i]
				if strings.Contains(run, "\n") && strings.TrimSpace(run) == "" {
					return true
				}
			}
			inTag = true
			runStart = -1
		case r == '>':
			inTag = false
			runStart = i + 1
		default:
			_ = inTag
		}
	}
	return false
}

func collectAgentDeclarations(doc *xmlnode.Node) map[string]string {
	out := map[string]string{}
	for _, el := range xmlnode.FindAll(doc) {
		if el.Local != "agent" {
			continue
		}
		id, ok := el.AttrValueNS(xmlnode.XMLNamespace, "id", "xml:id")
		if !ok || id == "" {
			continue
		}
		out[id] = id
	}
	return out
}

func findBodyParagraphs(doc *xmlnode.Node) []*xmlnode.Node {
	var result []*xmlnode.Node
	var walk func(node *xmlnode.Node, inBody bool)
	walk = func(node *xmlnode.Node, inBody bool) {
		if node.Type == xmlnode.Document {
			for _, c := range node.Children {
				walk(c, inBody)
			}
			return
		}
		if node.Type != xmlnode.Element {
			return
		}
		if node.Local == "body" {
			inBody = true
		}
		if inBody && node.Local == "p" {
			result = append(result, node)
		}
		for _, c := range node.Children {
			walk(c, inBody)
		}
	}
	walk(doc, false)
	return result
}

func roleOf(n *xmlnode.Node) string {
	v, _ := n.AttrValueNS(nsTTM, "role", "ttm:role")
	return v
}

func langOf(n *xmlnode.Node) string {
	v, _ := n.AttrValueNS(xmlnode.XMLNamespace, "lang", "xml:lang")
	return v
}

func isTimedSpan(n *xmlnode.Node) bool {
	return xmlnode.NameMatches(n, "span") && n.HasAttrLocal("begin") && n.HasAttrLocal("end")
}

// parseP parses one <p> element into a LyricLine, including nested
// x-bg/x-translation/x-roman spans.
func parseP(p *xmlnode.Node, formatted bool, agentNames map[string]string, data *ir.ParsedSourceData) (ir.LyricLine, error) {
	var line ir.LyricLine

	if beginStr, ok := p.AttrValueLocal("begin"); ok {
		v, err := ParseTimeAttr(beginStr)
		if err != nil {
			data.AddWarning(fmt.Sprintf("TTML: %v", err))
		} else {
			line.StartMs = v
		}
	}
	if endStr, ok := p.AttrValueLocal("end"); ok {
		v, err := ParseTimeAttr(endStr)
		if err != nil {
			data.AddWarning(fmt.Sprintf("TTML: %v", err))
		} else {
			line.EndMs = v
		}
	}
	if agent, ok := p.AttrValueNS(nsTTM, "agent", "ttm:agent"); ok {
		line.Agent = agent
	}
	if sp, ok := p.AttrValueNS(nsItunes, "song-part", "itunes:song-part"); ok {
		line.SongPart = sp
	}
	if key, ok := p.AttrValueNS(nsItunes, "key", "itunes:key"); ok {
		line.ItunesKey = key
	}

	var syls []ir.LyricSyllable
	var translations []ir.TranslationEntry
	var romanizations []ir.RomanizationEntry
	var bg *ir.BackgroundSection
	hasTimedSpan := false

	var lastTimedSyllable *ir.LyricSyllable
	children := p.Children
	for i, child := range children {
		switch child.Type {
		case xmlnode.Text:
			applyInterSpanWhitespace(child.Text, formatted, lastTimedSyllable)
		case xmlnode.Element:
			role := roleOf(child)
			switch {
			case strings.Contains(role, "bg"):
				b, err := parseBackgroundSpan(child, formatted)
				if err != nil {
					return line, err
				}
				bg = b
			case role == "x-translation":
				translations = append(translations, ir.TranslationEntry{Text: strings.TrimSpace(child.TextContent()), Lang: langOf(child)})
			case role == "x-roman":
				romanizations = append(romanizations, ir.RomanizationEntry{Text: strings.TrimSpace(child.TextContent()), Lang: langOf(child)})
			case isTimedSpan(child):
				hasTimedSpan = true
				syl, err := parseTimedSpan(child)
				if err != nil {
					return line, err
				}
				syls = append(syls, syl)
				lastTimedSyllable = &syls[len(syls)-1]
			}
		}
		_ = i
	}

	if len(translations) > 1 {
		data.AddWarning(fmt.Sprintf("TTML: multiple x-translation tags on line at %dms, keeping the last", line.StartMs))
		translations = translations[len(translations)-1:]
	}
	if len(romanizations) > 1 {
		data.AddWarning(fmt.Sprintf("TTML: multiple x-roman tags on line at %dms, keeping the last", line.StartMs))
		romanizations = romanizations[len(romanizations)-1:]
	}

	line.Translations = translations
	line.Romanizations = romanizations
	line.BackgroundSection = bg

	if hasTimedSpan {
		line.MainSyllables = syls
		line.LineText = ir.JoinSyllables(syls)
		line.HasLineText = true
	} else {
		line.LineText = strings.TrimSpace(p.TextContent())
		line.HasLineText = true
	}

	if line.StartMs == 0 && line.EndMs == 0 && len(syls) > 0 {
		line.StartMs = syls[0].StartMs
		line.EndMs = syls[len(syls)-1].EndMs
	}
	return line, nil
}

func parseTimedSpan(span *xmlnode.Node) (ir.LyricSyllable, error) {
	beginStr, _ := span.AttrValueLocal("begin")
	endStr, _ := span.AttrValueLocal("end")
	begin, err := ParseTimeAttr(beginStr)
	if err != nil {
		return ir.LyricSyllable{}, err
	}
	end, err := ParseTimeAttr(endStr)
	if err != nil {
		return ir.LyricSyllable{}, err
	}
	return ir.LyricSyllable{
		Text:    strings.TrimSpace(span.TextContent()),
		StartMs: begin,
		EndMs:   end,
	}, nil
}

func parseBackgroundSpan(span *xmlnode.Node, formatted bool) (*ir.BackgroundSection, error) {
	bg := &ir.BackgroundSection{}
	var lastSyl *ir.LyricSyllable
	for _, child := range span.Children {
		switch child.Type {
		case xmlnode.Text:
			applyInterSpanWhitespace(child.Text, formatted, lastSyl)
		case xmlnode.Element:
			role := roleOf(child)
			switch {
			case role == "x-translation":
				bg.Translations = append(bg.Translations, ir.TranslationEntry{Text: strings.TrimSpace(child.TextContent()), Lang: langOf(child)})
			case role == "x-roman":
				bg.Romanizations = append(bg.Romanizations, ir.RomanizationEntry{Text: strings.TrimSpace(child.TextContent()), Lang: langOf(child)})
			case isTimedSpan(child):
				syl, err := parseTimedSpan(child)
				if err != nil {
					return nil, err
				}
				syl.Text = trimBackgroundParens(syl.Text)
				bg.Syllables = append(bg.Syllables, syl)
				lastSyl = &bg.Syllables[len(bg.Syllables)-1]
			}
		}
	}
	if len(bg.Syllables) > 0 {
		bg.StartMs = bg.Syllables[0].StartMs
		bg.EndMs = bg.Syllables[len(bg.Syllables)-1].EndMs
	}
	return bg, nil
}

func trimBackgroundParens(s string) string {
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimPrefix(s, "（")
	s = strings.TrimSuffix(s, ")")
	s = strings.TrimSuffix(s, "）")
	return s
}

// applyInterSpanWhitespace implements spec §4.4's whitespace-inference
// algorithm for a text run sitting between two timed spans.
func applyInterSpanWhitespace(text string, formatted bool, prev *ir.LyricSyllable) {
	if prev == nil {
		return
	}
	hasNewline := strings.Contains(text, "\n")
	trimsEmpty := strings.TrimSpace(text) == ""
	if formatted && hasNewline && trimsEmpty {
		return
	}
	if strings.ContainsAny(text, " \t\r\n") {
		prev.EndsWithSpace = true
	}
}

// ---- Generation ----

// TimingMode selects whether the generator emits per-syllable spans.
type TimingMode int

const (
	TimingLine TimingMode = iota
	TimingWord
)

// GenerationOptions controls Generate's output shape, per spec §6.
type GenerationOptions struct {
	TimingMode          TimingMode
	Format              bool // pretty-print
	UseAppleFormatRules bool
	AutoWordSplitting   bool
	PunctuationWeight   float64
}

// Generate renders lines (and the relevant metadata subset) back to TTML.
func Generate(lines []ir.LyricLine, metadata *ir.MetadataStore, opts GenerationOptions) (string, error) {
	if opts.AutoWordSplitting {
		lines = autoSplitSyllables(lines, opts.PunctuationWeight)
	}

	doc := &xmlnode.Node{Type: xmlnode.Document}
	tt := xmlnode.NewElement("tt")
	tt.SetAttr("xmlns", nsTTML)
	tt.SetAttr("xmlns:ttm", nsTTM)
	if opts.UseAppleFormatRules {
		tt.SetAttr("xmlns:itunes", nsItunes)
	}
	tt.SetAttr("xmlns:amll", nsAMLL)
	if opts.TimingMode == TimingWord {
		tt.SetAttr("itunes:timing", "Word")
	} else {
		tt.SetAttr("itunes:timing", "Line")
	}
	doc.AppendChild(tt)

	head := xmlnode.NewElement("head")
	tt.AppendChild(head)

	agents := collectAgents(lines)
	if len(agents) > 0 {
		metaEl := xmlnode.NewElement("metadata")
		for _, a := range agents {
			agentEl := xmlnode.NewElement("ttm:agent")
			agentEl.SetAttr("type", "person")
			agentEl.SetAttr("xml:id", a)
			metaEl.AppendChild(agentEl)
		}
		head.AppendChild(metaEl)
	}

	body := xmlnode.NewElement("body")
	if len(lines) > 0 {
		body.SetAttr("dur", FormatTimeAttr(lines[len(lines)-1].EndMs))
	}
	div := xmlnode.NewElement("div")
	if len(lines) > 0 {
		div.SetAttr("begin", FormatTimeAttr(lines[0].StartMs))
		div.SetAttr("end", FormatTimeAttr(lines[len(lines)-1].EndMs))
	}

	for i, line := range lines {
		p := buildP(line, i, opts)
		div.AppendChild(p)
	}
	body.AppendChild(div)
	tt.AppendChild(body)

	var sb strings.Builder
	xmlnode.Serialize(&sb, doc, opts.Format, 0)
	return sb.String(), nil
}

func collectAgents(lines []ir.LyricLine) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lines {
		a := l.Agent
		if a == "" {
			a = "v1"
		}
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	sort.Strings(out)
	return out
}

func buildP(line ir.LyricLine, idx int, opts GenerationOptions) *xmlnode.Node {
	p := xmlnode.NewElement("p")
	p.SetAttr("begin", FormatTimeAttr(line.StartMs))
	p.SetAttr("end", FormatTimeAttr(line.EndMs))

	agent := line.Agent
	if agent == "" {
		agent = "v1"
	}
	if opts.UseAppleFormatRules {
		p.SetAttr("ttm:agent", agent)
		key := line.ItunesKey
		if key == "" {
			key = fmt.Sprintf("L%d", idx+1)
		}
		p.SetAttr("itunes:key", key)
		if line.SongPart != "" {
			p.SetAttr("itunes:song-part", line.SongPart)
		}
	}

	if opts.TimingMode == TimingWord && len(line.MainSyllables) > 0 {
		for i, syl := range line.MainSyllables {
			span := xmlnode.NewElement("span")
			span.SetAttr("begin", FormatTimeAttr(syl.StartMs))
			span.SetAttr("end", FormatTimeAttr(syl.EndMs))
			span.AppendChild(xmlnode.NewText(syl.Text))
			p.AppendChild(span)
			if syl.EndsWithSpace && i < len(line.MainSyllables)-1 {
				p.AppendChild(xmlnode.NewText(" "))
			}
		}
	} else {
		text := line.LineText
		if text == "" {
			text = ir.JoinSyllables(line.MainSyllables)
		}
		p.AppendChild(xmlnode.NewText(text))
	}

	if bg := line.BackgroundSection; bg != nil {
		p.AppendChild(buildBackgroundSpan(bg, opts))
	}

	for _, t := range line.Translations {
		span := xmlnode.NewElement("span")
		span.SetAttr("ttm:role", "x-translation")
		if t.Lang != "" {
			span.SetAttr("xml:lang", t.Lang)
		}
		span.AppendChild(xmlnode.NewText(t.Text))
		p.AppendChild(span)
	}
	for _, r := range line.Romanizations {
		span := xmlnode.NewElement("span")
		span.SetAttr("ttm:role", "x-roman")
		if r.Lang != "" {
			span.SetAttr("xml:lang", r.Lang)
		}
		span.AppendChild(xmlnode.NewText(r.Text))
		p.AppendChild(span)
	}

	return p
}

func buildBackgroundSpan(bg *ir.BackgroundSection, opts GenerationOptions) *xmlnode.Node {
	span := xmlnode.NewElement("span")
	span.SetAttr("ttm:role", "x-bg")
	span.SetAttr("begin", FormatTimeAttr(bg.StartMs))
	span.SetAttr("end", FormatTimeAttr(bg.EndMs))

	if opts.TimingMode == TimingWord && len(bg.Syllables) > 0 {
		for i, syl := range bg.Syllables {
			text := syl.Text
			if i == 0 {
				text = "(" + text
			}
			if i == len(bg.Syllables)-1 {
				text = text + ")"
			}
			word := xmlnode.NewElement("span")
			word.SetAttr("begin", FormatTimeAttr(syl.StartMs))
			word.SetAttr("end", FormatTimeAttr(syl.EndMs))
			word.AppendChild(xmlnode.NewText(text))
			span.AppendChild(word)
			if syl.EndsWithSpace && i < len(bg.Syllables)-1 {
				span.AppendChild(xmlnode.NewText(" "))
			}
		}
	} else {
		span.AppendChild(xmlnode.NewText("(" + ir.JoinSyllables(bg.Syllables) + ")"))
	}
	for _, t := range bg.Translations {
		t2 := xmlnode.NewElement("span")
		t2.SetAttr("ttm:role", "x-translation")
		if t.Lang != "" {
			t2.SetAttr("xml:lang", t.Lang)
		}
		t2.AppendChild(xmlnode.NewText(t.Text))
		span.AppendChild(t2)
	}
	for _, r := range bg.Romanizations {
		r2 := xmlnode.NewElement("span")
		r2.SetAttr("ttm:role", "x-roman")
		if r.Lang != "" {
			r2.SetAttr("xml:lang", r.Lang)
		}
		r2.AppendChild(xmlnode.NewText(r.Text))
		span.AppendChild(r2)
	}
	return span
}

// autoSplitSyllables implements ttml.auto_word_splitting: a syllable
// whose text mixes spaces/punctuation with other characters is split by
// character class (see classifyRuns), with the syllable's duration
// distributed proportionally to each run's rune count, weighting
// punctuation runs by punctuationWeight. Whitespace-only runs produce no
// syllable; they mark the preceding run EndsWithSpace.
func autoSplitSyllables(lines []ir.LyricLine, punctuationWeight float64) []ir.LyricLine {
	if punctuationWeight <= 0 {
		punctuationWeight = 1
	}
	out := make([]ir.LyricLine, len(lines))
	for i, line := range lines {
		out[i] = line
		out[i].MainSyllables = splitSyllableRun(line.MainSyllables, punctuationWeight)
		if line.BackgroundSection != nil {
			bg := *line.BackgroundSection
			bg.Syllables = splitSyllableRun(line.BackgroundSection.Syllables, punctuationWeight)
			out[i].BackgroundSection = &bg
		}
	}
	return out
}

func splitSyllableRun(syls []ir.LyricSyllable, punctuationWeight float64) []ir.LyricSyllable {
	var out []ir.LyricSyllable
	for _, syl := range syls {
		parts := classifyRuns(syl.Text)
		if len(parts) <= 1 {
			out = append(out, syl)
			continue
		}
		totalWeight := 0.0
		weights := make([]float64, len(parts))
		for i, p := range parts {
			w := float64(len([]rune(p.text)))
			if p.punct {
				w *= punctuationWeight
			}
			weights[i] = w
			totalWeight += w
		}
		if totalWeight <= 0 {
			out = append(out, syl)
			continue
		}
		span := syl.EndMs - syl.StartMs
		cursor := syl.StartMs
		for i, p := range parts {
			text := strings.TrimSpace(p.text)
			dur := int64(float64(span) * weights[i] / totalWeight)
			end := cursor + dur
			if i == len(parts)-1 {
				end = syl.EndMs
			}
			if text != "" {
				out = append(out, ir.LyricSyllable{Text: text, StartMs: cursor, EndMs: end, EndsWithSpace: p.trailingSpace})
			}
			cursor = end
		}
	}
	return out
}

type textRun struct {
	text          string
	punct         bool
	trailingSpace bool
}

// classifyRuns splits text into alternating runs of punctuation/space
// runes and of all other runes. CJK and Latin letters are not told
// apart: both fall into the non-punctuation class.
func classifyRuns(text string) []textRun {
	var runs []textRun
	var cur []rune
	var curPunct bool
	flush := func() {
		if len(cur) == 0 {
			return
		}
		runs = append(runs, textRun{text: string(cur), punct: curPunct})
		cur = nil
	}
	for _, r := range text {
		isSpace := unicode.IsSpace(r)
		isPunct := unicode.IsPunct(r) || isCJKPunct(r)
		punctLike := isSpace || isPunct
		if len(cur) > 0 && punctLike != curPunct {
			flush()
		}
		curPunct = punctLike
		cur = append(cur, r)
	}
	flush()
	for i := range runs {
		if i+1 < len(runs) && strings.TrimSpace(runs[i+1].text) == "" {
			runs[i].trailingSpace = true
		}
	}
	return runs
}

func isCJKPunct(r rune) bool {
	p := width.LookupRune(r)
	k := p.Kind()
	return (k == width.EastAsianWide || k == width.EastAsianFullwidth) && unicode.IsPunct(r)
}
