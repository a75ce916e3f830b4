package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// timeExpr matches "5:03 pm", "17:30", "9am", "8 o'clock". A bare number only
// qualifies as a time when a colon, meridiem, or o'clock marker accompanies
// it, so "add 5 sources" never parses as five o'clock.
var timeExpr = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))|\b(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.|o'?clock)\b`)

// tzAbbreviations maps common timezone abbreviations to IANA identifiers.
// Best effort only; absence of a hint is not an error.
var tzAbbreviations = map[string]string{
	"pst":  "America/Los_Angeles",
	"pdt":  "America/Los_Angeles",
	"est":  "America/New_York",
	"edt":  "America/New_York",
	"cst":  "America/Chicago",
	"cdt":  "America/Chicago",
	"mst":  "America/Denver",
	"mdt":  "America/Denver",
	"utc":  "UTC",
	"gmt":  "UTC",
	"bst":  "Europe/London",
	"cet":  "Europe/Paris",
	"cest": "Europe/Paris",
	"ist":  "Asia/Kolkata",
	"jst":  "Asia/Tokyo",
	"aest": "Australia/Sydney",
}

// ParseTime extracts an hour/minute (and an optional timezone hint) from a
// normalized, lower-cased utterance. ok is false when no time-like token is
// present or the values are out of range.
func ParseTime(text string) (hour, minute int, timezone string, ok bool) {
	m := timeExpr.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, "", false
	}

	var hourStr, minStr, meridiem string
	if m[1] != "" {
		hourStr, minStr = m[1], m[2]
		// A meridiem may still follow: "5:03 pm".
		if rest := text[strings.Index(text, m[0])+len(m[0]):]; rest != "" {
			meridiem = leadingMeridiem(rest)
		}
	} else {
		hourStr, minStr, meridiem = m[3], m[4], m[5]
	}

	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, 0, "", false
	}
	if minStr != "" {
		minute, err = strconv.Atoi(minStr)
		if err != nil {
			return 0, 0, "", false
		}
	}

	switch strings.TrimRight(strings.ReplaceAll(meridiem, ".", ""), " ") {
	case "pm":
		if hour > 12 {
			return 0, 0, "", false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour > 12 {
			return 0, 0, "", false
		}
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return 0, 0, "", false
	}

	return hour, minute, TimezoneHint(text), true
}

// TimezoneHint scans an utterance for a known timezone abbreviation and
// returns the corresponding IANA identifier, or "" when none is present.
func TimezoneHint(text string) string {
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?")
		if tz, ok := tzAbbreviations[word]; ok {
			return tz
		}
	}
	return ""
}

func leadingMeridiem(rest string) string {
	rest = strings.TrimLeft(rest, " ")
	for _, mer := range []string{"am", "pm", "a.m.", "p.m."} {
		if strings.HasPrefix(rest, mer) {
			if strings.Contains(mer, ".") {
				return mer
			}
			// Reject "ambient": the token must end at a word boundary.
			if len(rest) == len(mer) || !isLetter(rest[len(mer)]) {
				return mer
			}
		}
	}
	return ""
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
