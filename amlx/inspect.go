package amlx

import (
	"fmt"
	"strings"

	"code.cloudfoundry.org/bytefmt"
)

// Inspect renders a human-readable summary of an encoded AMLX blob (its
// source format, total size, and line, syllable and metadata-key counts),
// the way an operator would sanity-check a converted file before
// shipping it.
func Inspect(raw []byte) (string, error) {
	data, err := Decode(raw)
	if err != nil {
		return "", err
	}

	var syllables int
	for _, line := range data.Lines {
		syllables += len(line.MainSyllables)
		if bg := line.BackgroundSection; bg != nil {
			syllables += len(bg.Syllables)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "format:     %s\n", data.SourceFormat)
	fmt.Fprintf(&b, "total size: %s\n", bytefmt.ByteSize(uint64(len(raw))))
	fmt.Fprintf(&b, "lines:      %d\n", len(data.Lines))
	fmt.Fprintf(&b, "syllables:  %d\n", syllables)
	fmt.Fprintf(&b, "metadata:   %d keys\n", len(data.RawMetadata))
	return b.String(), nil
}
