package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockRE matches an explicit clock time: "2pm", "10:30 am", "14:30".
// A bare number without a colon or meridiem is not a time.
var clockRE = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(a\.?m\.?|p\.?m\.?)?|\b(\d{1,2})\s*(a\.?m\.?|p\.?m\.?)\b`)

// monthDayRE matches month name + day references like "march 3" or "Mar 3rd".
var monthDayRE = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)

var monthMap = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdayMap = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday, "sunday": time.Sunday,
}

// ParseRequestedTime extracts a concrete appointment time from a reply like
// "Tuesday at 2pm works" or "can you do march 3 at 10:30?". The day reference
// defaults to the next occurrence; a time with no day means today, or tomorrow
// if that time has already passed. Returns nil when the message names no
// explicit clock time.
func ParseRequestedTime(message string, now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}
	msg := strings.ToLower(message)
	now = now.In(loc)

	hour, minute, ok := parseClock(msg)
	if !ok {
		return nil
	}

	day := resolveDay(msg, now)
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)

	// A time with no day reference means the nearest future occurrence.
	if !hasDayReference(msg) && !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return &t
}

// parseClock pulls hour and minute out of the first clock reference.
func parseClock(msg string) (hour, minute int, ok bool) {
	m := clockRE.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0, false
	}

	var meridiem string
	if m[1] != "" {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		meridiem = m[3]
	} else {
		hour, _ = strconv.Atoi(m[4])
		meridiem = m[5]
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}

	meridiem = strings.ReplaceAll(strings.ToLower(meridiem), ".", "")
	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		// No meridiem: "14:30" is unambiguous, a small hour like "9:00"
		// reads as business hours.
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
	}
	if hour > 23 {
		return 0, 0, false
	}
	return hour, minute, true
}

// resolveDay picks the date the message refers to, defaulting to today.
func resolveDay(msg string, now time.Time) time.Time {
	if m := monthDayRE.FindStringSubmatch(msg); m != nil {
		mon := monthMap[strings.ToLower(m[1])[:3]]
		dayNum, _ := strconv.Atoi(m[2])
		if dayNum >= 1 && dayNum <= 31 {
			d := time.Date(now.Year(), mon, dayNum, 0, 0, 0, 0, now.Location())
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			if d.Before(today) {
				d = d.AddDate(1, 0, 0)
			}
			return d
		}
	}

	if strings.Contains(msg, "tomorrow") {
		return now.AddDate(0, 0, 1)
	}
	if strings.Contains(msg, "today") {
		return now
	}

	for word, wd := range weekdayMap {
		if !containsWord(msg, word) && !containsWord(msg, word[:3]) {
			continue
		}
		days := (int(wd) - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days)
	}

	return now
}

// hasDayReference reports whether the message names a specific day.
func hasDayReference(msg string) bool {
	if strings.Contains(msg, "today") || strings.Contains(msg, "tomorrow") {
		return true
	}
	if monthDayRE.MatchString(msg) {
		return true
	}
	for word := range weekdayMap {
		if containsWord(msg, word) || containsWord(msg, word[:3]) {
			return true
		}
	}
	return false
}

// containsWord matches whole words only, so "monday" is found in
// "next monday?" but "sun" is not found in "sunscreen".
func containsWord(msg, word string) bool {
	idx := 0
	for {
		i := strings.Index(msg[idx:], word)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordChar(msg[i-1])
		afterIdx := i + len(word)
		after := afterIdx >= len(msg) || !isWordChar(msg[afterIdx])
		if before && after {
			return true
		}
		idx = i + len(word)
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
