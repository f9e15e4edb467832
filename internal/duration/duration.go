// Package duration parses, formats and rounds duration field values.
// Values are expressed in seconds.
package duration

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Format is one of the supported duration display formats
type Format string

const (
	FormatDH      Format = "d h"
	FormatDHM     Format = "d h:mm"
	FormatDHMS    Format = "d h:mm:ss"
	FormatHM      Format = "h:mm"
	FormatHMS     Format = "h:mm:ss"
	FormatHMSS1   Format = "h:mm:ss.s"
	FormatHMSS2   Format = "h:mm:ss.ss"
	FormatHMSS3   Format = "h:mm:ss.sss"
	DefaultFormat        = FormatHM
)

// ErrUnknownFormat is returned by ParseFormat for unsupported format strings
var ErrUnknownFormat = errors.New("unknown duration format")

type formatSpec struct {
	days      bool // days are rendered separately from hours
	minutes   bool
	seconds   bool
	precision int // number of fractional second digits
}

var formatSpecs = map[Format]formatSpec{
	FormatDH:    {days: true},
	FormatDHM:   {days: true, minutes: true},
	FormatDHMS:  {days: true, minutes: true, seconds: true},
	FormatHM:    {minutes: true},
	FormatHMS:   {minutes: true, seconds: true},
	FormatHMSS1: {minutes: true, seconds: true, precision: 1},
	FormatHMSS2: {minutes: true, seconds: true, precision: 2},
	FormatHMSS3: {minutes: true, seconds: true, precision: 3},
}

// Formats lists every supported format
func Formats() []Format {
	return []Format{FormatDH, FormatDHM, FormatDHMS, FormatHM, FormatHMS, FormatHMSS1, FormatHMSS2, FormatHMSS3}
}

// ParseFormat validates a format string
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimSpace(s))
	if _, ok := formatSpecs[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// MustParseFormat is like ParseFormat but panics on unknown formats
func MustParseFormat(s string) Format {
	f, err := ParseFormat(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Format) spec() formatSpec {
	s, ok := formatSpecs[f]
	if !ok {
		panic(fmt.Sprintf("%v: %q", ErrUnknownFormat, string(f)))
	}
	return s
}

var (
	unitRe    = regexp.MustCompile(`^(?:(\d+)\s*d)?\s*(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?\s*(?:(\d+(?:\.\d+)?)\s*s)?$`)
	dayHourRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s*h$`)
	colonRe   = regexp.MustCompile(`^(?:(\d+)\s*d\s*|(\d+)\s+)?(\d+):(\d+)(?::(\d+(?:\.\d+)?))?$`)
	bareRe    = regexp.MustCompile(`^(\d+(?:\.\d+)?)$`)
)

// Parse converts user input into seconds. It returns false for anything
// that does not fit the grammar of the given format.
func Parse(text string, format Format) (float64, bool) {
	spec := format.spec()

	text = strings.ToLower(strings.TrimSpace(text))
	negative := false
	if strings.HasPrefix(text, "-") {
		negative = true
		text = strings.TrimSpace(text[1:])
	}
	if text == "" {
		return 0, false
	}

	seconds, ok := parseAbsolute(text, spec)
	if !ok {
		return 0, false
	}
	if negative && seconds != 0 {
		seconds = -seconds
	}
	return seconds, true
}

func parseAbsolute(text string, spec formatSpec) (float64, bool) {
	if m := bareRe.FindStringSubmatch(text); m != nil {
		if strings.Contains(m[1], ".") && spec.precision == 0 {
			return 0, false
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		switch {
		case spec.seconds:
			return n, true
		case spec.minutes:
			return n * 60, true
		default:
			return n * 3600, true
		}
	}

	if m := colonRe.FindStringSubmatch(text); m != nil {
		if !spec.minutes {
			return 0, false
		}
		if m[5] != "" && !spec.seconds {
			return 0, false
		}
		if strings.Contains(m[5], ".") && spec.precision == 0 {
			return 0, false
		}
		days := atoi(m[1]) + atoi(m[2])
		total := float64(days*86400 + atoi(m[3])*3600 + atoi(m[4])*60)
		if m[5] != "" {
			s, err := strconv.ParseFloat(m[5], 64)
			if err != nil {
				return 0, false
			}
			total += s
		}
		return total, true
	}

	if m := dayHourRe.FindStringSubmatch(text); m != nil {
		return float64(atoi(m[1])*86400 + atoi(m[2])*3600), true
	}

	if m := unitRe.FindStringSubmatch(text); m != nil {
		if m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "" {
			return 0, false
		}
		if strings.Contains(m[4], ".") && spec.precision == 0 {
			return 0, false
		}
		total := float64(atoi(m[1])*86400 + atoi(m[2])*3600 + atoi(m[3])*60)
		if m[4] != "" {
			s, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				return 0, false
			}
			total += s
		}
		return total, true
	}

	return 0, false
}

func atoi(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Round rounds seconds to the granularity of the format, halves away from zero
func Round(seconds float64, format Format) float64 {
	spec := format.spec()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return seconds
	}

	abs := math.Abs(seconds)
	var rounded float64
	switch {
	case spec.precision > 0:
		scale := math.Pow10(spec.precision)
		rounded = math.Round(abs*scale) / scale
	case spec.seconds:
		rounded = math.Round(abs)
	case spec.minutes:
		rounded = math.Round(abs/60) * 60
	default:
		rounded = math.Round(abs/3600) * 3600
	}
	if seconds < 0 && rounded != 0 {
		return -rounded
	}
	return rounded
}

// RoundNullable is Round for optional values; nil stays nil
func RoundNullable(seconds *float64, format Format) *float64 {
	if seconds == nil {
		return nil
	}
	rounded := Round(*seconds, format)
	return &rounded
}

// FormatValue renders seconds in the given format
func FormatValue(seconds float64, format Format) string {
	spec := format.spec()
	rounded := Round(seconds, format)

	sign := ""
	if rounded < 0 {
		sign = "-"
	}
	scale := int64(math.Pow10(spec.precision))
	units := int64(math.Round(math.Abs(rounded) * float64(scale)))
	whole := units / scale
	fraction := units % scale

	hours := whole / 3600
	minutes := (whole % 3600) / 60
	secs := whole % 60

	var b strings.Builder
	b.WriteString(sign)
	if spec.days {
		fmt.Fprintf(&b, "%dd ", hours/24)
		hours %= 24
	}
	if !spec.minutes {
		fmt.Fprintf(&b, "%dh", hours)
		return b.String()
	}
	fmt.Fprintf(&b, "%d:%02d", hours, minutes)
	if spec.seconds {
		fmt.Fprintf(&b, ":%02d", secs)
		if spec.precision > 0 {
			fmt.Fprintf(&b, ".%0*d", spec.precision, fraction)
		}
	}
	return b.String()
}
