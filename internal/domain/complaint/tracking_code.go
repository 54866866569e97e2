package complaint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const DefaultTrackingPrefix = "CS"

var trackingCodePattern = regexp.MustCompile(`^([A-Z0-9]+)-(\d{4})-(\d{4,})$`)

type TrackingCode struct {
	Prefix string
	Year   int
	Seq    int64
}

// FormatTrackingCode renders PREFIX-YEAR-SEQ with SEQ padded to at least four
// digits. Larger ordinals widen instead of being truncated.
func FormatTrackingCode(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

func ParseTrackingCode(raw string) (TrackingCode, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	match := trackingCodePattern.FindStringSubmatch(trimmed)
	if match == nil {
		return TrackingCode{}, fmt.Errorf("%w: %q", ErrInvalidTrackingCode, raw)
	}

	year, err := strconv.Atoi(match[2])
	if err != nil {
		return TrackingCode{}, fmt.Errorf("%w: %q", ErrInvalidTrackingCode, raw)
	}
	seq, err := strconv.ParseInt(match[3], 10, 64)
	if err != nil || seq <= 0 {
		return TrackingCode{}, fmt.Errorf("%w: %q", ErrInvalidTrackingCode, raw)
	}

	return TrackingCode{Prefix: match[1], Year: year, Seq: seq}, nil
}

func (c TrackingCode) String() string {
	return FormatTrackingCode(c.Prefix, c.Year, c.Seq)
}

// ValidTrackingPrefix reports whether prefix can appear in a tracking code.
func ValidTrackingPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, r := range prefix {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
