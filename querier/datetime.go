package querier

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateTimeLayout is the canonical form of date values in executed searches.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateOrder tells how an ambiguous numeric date such as 01-03-2017 is read.
type DateOrder uint8

const (
	DateOrderDMY DateOrder = iota
	DateOrderMDY
	DateOrderYMD
)

func (o DateOrder) String() string {
	switch o {
	case DateOrderMDY:
		return "mdy"
	case DateOrderYMD:
		return "ymd"
	default:
		return "dmy"
	}
}

// ParseDateOrder accepts dmy, mdy and ymd, as well as the user profile
// spellings eur, usa and iso.
func ParseDateOrder(s string) (DateOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dmy", "eur":
		return DateOrderDMY, nil
	case "mdy", "usa":
		return DateOrderMDY, nil
	case "ymd", "iso":
		return DateOrderYMD, nil
	default:
		return 0, fmt.Errorf("invalid date order %q, expected one of dmy, mdy, ymd", s)
	}
}

var (
	offsetRe  = regexp.MustCompile(`(?i)\s*([+-])\s*(\d+)\s*(millisecond|msec|second|sec|minute|min|hour|day|week|fortnight|month|year)s?$`)
	dayOfRe   = regexp.MustCompile(`(?i)^(first|last) day of (next month|last month|previous month|this month|[a-z]+)(?:\s+(\d{4}))?$`)
	weekdayRe = regexp.MustCompile(`(?i)^(next|last|previous|this) ([a-z]+)$`)

	// whenParser is read-only after construction and shared by all coercers.
	whenParser = func() *when.Parser {
		w := when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)
		return w
	}()
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

var timeLayouts = []string{
	"",
	" 15:04",
	" 15:04:05",
	" 3pm",
	" 3PM",
	" 3:04pm",
	" 3:04PM",
}

var dateLayouts = map[DateOrder][]string{
	DateOrderDMY: {"2-1-2006", "2-Jan-2006", "2 Jan 2006", "2 January 2006"},
	DateOrderMDY: {"1-2-2006", "Jan-2-2006", "Jan 2 2006", "January 2 2006"},
	DateOrderYMD: {"2006-1-2"},
}

type offset struct {
	sign int
	n    int
	unit string
}

// dateParser resolves a date search value relative to a clock and location.
type dateParser struct {
	order DateOrder
	loc   *time.Location
	now   func() time.Time
}

func (p dateParser) parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "/", "-"))
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	base, offsets := splitOffsets(s)
	if base == "" {
		return time.Time{}, fmt.Errorf("date %q has offsets but no base date", raw)
	}

	t, err := p.parseBase(base)
	if err != nil {
		return time.Time{}, err
	}

	// Explicit zones keep their instant but are shown in loc, since round-trip
	// strings carry no zone.
	t = t.In(p.loc)

	for _, o := range offsets {
		t = o.apply(t)
	}

	return t, nil
}

// splitOffsets peels trailing "+ 3 minutes" style offsets off s. Offsets are
// returned in the order they appear.
func splitOffsets(s string) (string, []offset) {
	var offsets []offset

	for {
		m := offsetRe.FindStringSubmatchIndex(s)
		if m == nil {
			break
		}

		sign := 1
		if s[m[2]:m[3]] == "-" {
			sign = -1
		}
		n, err := strconv.Atoi(s[m[4]:m[5]])
		if err != nil {
			break
		}
		offsets = append([]offset{{sign: sign, n: n, unit: strings.ToLower(s[m[6]:m[7]])}}, offsets...)
		s = strings.TrimSpace(s[:m[0]])
	}

	return s, offsets
}

func (o offset) apply(t time.Time) time.Time {
	n := o.sign * o.n

	switch o.unit {
	case "millisecond", "msec":
		return t.Add(time.Duration(n) * time.Millisecond)
	case "second", "sec":
		return t.Add(time.Duration(n) * time.Second)
	case "minute", "min":
		return t.Add(time.Duration(n) * time.Minute)
	case "hour":
		return t.Add(time.Duration(n) * time.Hour)
	case "day":
		return t.AddDate(0, 0, n)
	case "week":
		return t.AddDate(0, 0, 7*n)
	case "fortnight":
		return t.AddDate(0, 0, 14*n)
	case "month":
		return t.AddDate(0, n, 0)
	case "year":
		return t.AddDate(n, 0, 0)
	default:
		return t
	}
}

func (p dateParser) parseBase(s string) (time.Time, error) {
	now := p.now().In(p.loc)
	today := midnight(now)

	switch strings.ToLower(s) {
	case "now":
		return now, nil
	case "today", "midnight":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if m := dayOfRe.FindStringSubmatch(s); m != nil {
		if t, ok := p.dayOf(today, strings.ToLower(m[1]), strings.ToLower(m[2]), m[3]); ok {
			return t, nil
		}
	}

	if m := weekdayRe.FindStringSubmatch(s); m != nil {
		if wd, ok := weekdays[strings.ToLower(m[2])]; ok {
			return relativeWeekday(today, strings.ToLower(m[1]), wd), nil
		}
	}

	if t, ok := p.parseLayouts(s); ok {
		return t, nil
	}

	if r, err := whenParser.Parse(s, now); err == nil && r != nil && strings.EqualFold(strings.TrimSpace(r.Text), s) {
		return r.Time.In(p.loc), nil
	}

	t, err := dateparse.ParseIn(s, p.loc, dateparse.PreferMonthFirst(p.order == DateOrderMDY))
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q: %w", s, err)
	}
	return t, nil
}

func (p dateParser) parseLayouts(s string) (time.Time, bool) {
	// A leading four digit year is never ambiguous.
	for _, layout := range []string{DateTimeLayout, "2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05", "2006-1-2 15:04", "2006-1-2"} {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}

	for _, d := range dateLayouts[p.order] {
		for _, tl := range timeLayouts {
			if t, err := time.ParseInLocation(d+tl, s, p.loc); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func (p dateParser) dayOf(today time.Time, which, month, year string) (time.Time, bool) {
	var first time.Time

	switch month {
	case "this month":
		first = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, p.loc)
	case "next month":
		first = time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, p.loc)
	case "last month", "previous month":
		first = time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, p.loc)
	default:
		m, ok := months[month]
		if !ok {
			return time.Time{}, false
		}
		y := today.Year()
		if year != "" {
			y, _ = strconv.Atoi(year)
		}
		first = time.Date(y, m, 1, 0, 0, 0, 0, p.loc)
	}

	if which == "last" {
		return first.AddDate(0, 1, -1), true
	}
	return first, true
}

// relativeWeekday follows the usual reading: "next" is strictly after today,
// "last" strictly before, and "this" is today or later in the week.
func relativeWeekday(today time.Time, which string, wd time.Weekday) time.Time {
	diff := int(wd - today.Weekday())

	switch which {
	case "next":
		if diff <= 0 {
			diff += 7
		}
	case "last", "previous":
		if diff >= 0 {
			diff -= 7
		}
	default:
		if diff < 0 {
			diff += 7
		}
	}

	return today.AddDate(0, 0, diff)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
