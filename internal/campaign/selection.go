package campaign

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// moreTimesPhrases mark a reply as asking for different availability rather
// than picking one of the offered slots.
var moreTimesPhrases = []string{
	"more times", "more options", "other times", "other options",
	"different times", "different options", "later times", "earlier times",
	"any other", "anything else", "what else",
	"any later", "any earlier",
}

var (
	optionRE       = regexp.MustCompile(`(?i)^(?:option|number|#|choice)\s*(\d+)$`)
	meridiemTimeRE = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)`)
	bareNumberRE   = regexp.MustCompile(`\b(\d{1,2})\b`)

	// dateContextRE spots month-day references like "Mar 4th" so ordinal
	// words inside a date are not read as slot picks.
	dateContextRE = regexp.MustCompile(`(?i)(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+\d`)
)

var ordinalWords = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6,
	"1st": 1, "2nd": 2, "3rd": 3, "4th": 4, "5th": 5, "6th": 6,
}

// DetectSlotSelection resolves a reply against the slots last offered to the
// patient. It recognizes slot numbers ("2", "option 2"), ordinal words ("the
// first one") and clock times with a meridiem ("10:30am"). It returns false
// when the reply does not pick one of the offered slots.
func DetectSlotSelection(message string, offered []time.Time, loc *time.Location) (time.Time, bool) {
	msg := strings.TrimSpace(strings.ToLower(message))
	if msg == "" || len(offered) == 0 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, phrase := range moreTimesPhrases {
		if strings.Contains(msg, phrase) {
			return time.Time{}, false
		}
	}

	if m := optionRE.FindStringSubmatch(msg); len(m) > 1 {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= len(offered) {
			return offered[n-1], true
		}
	}

	if !dateContextRE.MatchString(msg) {
		for word, n := range ordinalWords {
			if strings.Contains(msg, word) && n <= len(offered) {
				return offered[n-1], true
			}
		}
	}

	if m := meridiemTimeRE.FindStringSubmatch(msg); len(m) > 0 {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		meridiem := strings.ReplaceAll(strings.ToLower(m[3]), ".", "")
		if meridiem == "pm" && hour != 12 {
			hour += 12
		} else if meridiem == "am" && hour == 12 {
			hour = 0
		}
		for _, slot := range offered {
			local := slot.In(loc)
			if local.Hour() == hour && local.Minute() == minute {
				return slot, true
			}
		}
		// An explicit clock time that matches no offered slot is not a pick.
		return time.Time{}, false
	}

	if m := bareNumberRE.FindStringSubmatch(msg); len(m) > 1 {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= len(offered) {
			return offered[n-1], true
		}
		for _, slot := range offered {
			h := slot.In(loc).Hour()
			if h == n || h == n+12 {
				return slot, true
			}
		}
	}

	return time.Time{}, false
}
