package ttml

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/apoint123/lyricsforge/errs"
)

// timeRegexp accepts HH:MM:SS.fff, MM:SS.fff, SSs and SSSms per spec
// §4.4; the bare-seconds and bare-milliseconds suffixed forms are handled
// separately since they don't fit the colon-delimited shape.
var timeRegexp = regexp.MustCompile(`^(?:(\d+):)?(?:(\d+):)?(\d+)(?:[.:](\d{1,3}))?$`)

// ParseTimeAttr parses a TTML begin/end attribute value into milliseconds.
func ParseTimeAttr(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errs.New(errs.InvalidTime, "empty TTML time attribute")
	}
	if strings.HasSuffix(s, "ms") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "ms"), 64)
		if err != nil {
			return 0, errs.Wrap(errs.InvalidTime, err, "invalid ms time attribute "+s)
		}
		return int64(v), nil
	}
	if strings.HasSuffix(s, "s") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
		if err != nil {
			return 0, errs.Wrap(errs.InvalidTime, err, "invalid s time attribute "+s)
		}
		return int64(v * 1000), nil
	}

	m := timeRegexp.FindStringSubmatch(s)
	if m == nil {
		return 0, errs.New(errs.InvalidTime, fmt.Sprintf("unrecognized TTML time attribute %q", s))
	}
	var h, min, sec int64
	switch {
	case m[1] != "" && m[2] != "":
		h, _ = strconv.ParseInt(m[1], 10, 64)
		min, _ = strconv.ParseInt(m[2], 10, 64)
		sec, _ = strconv.ParseInt(m[3], 10, 64)
	case m[2] != "":
		min, _ = strconv.ParseInt(m[2], 10, 64)
		sec, _ = strconv.ParseInt(m[3], 10, 64)
	case m[1] != "":
		min, _ = strconv.ParseInt(m[1], 10, 64)
		sec, _ = strconv.ParseInt(m[3], 10, 64)
	default:
		sec, _ = strconv.ParseInt(m[3], 10, 64)
	}
	frac := m[4]
	var ms int64
	if frac != "" {
		for len(frac) < 3 {
			frac += "0"
		}
		ms, _ = strconv.ParseInt(frac, 10, 64)
	}
	return (h*3600+min*60+sec)*1000 + ms, nil
}

// FormatTimeAttr renders ms as HH:MM:SS.fff (Apple Music's own dialect,
// also accepted back in by ParseTimeAttr).
func FormatTimeAttr(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	min := (ms % 3600000) / 60000
	sec := (ms % 60000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, min, sec, frac)
}
