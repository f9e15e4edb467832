package fieldtypes

import (
	"strconv"
	"strings"
	"time"

	"github.com/rebelice/lazyview/internal/models"
)

// Date filter names
const (
	FilterDateIs           = "date_is"
	FilterDateIsNot        = "date_is_not"
	FilterDateIsBefore     = "date_is_before"
	FilterDateIsOnOrBefore = "date_is_on_or_before"
	FilterDateIsAfter      = "date_is_after"
	FilterDateIsOnOrAfter  = "date_is_on_or_after"
	FilterDateIsWithin     = "date_is_within"
)

// DateOperator selects the period a date filter compares against
type DateOperator string

const (
	DateToday           DateOperator = "today"
	DateYesterday       DateOperator = "yesterday"
	DateTomorrow        DateOperator = "tomorrow"
	DateOneWeekAgo      DateOperator = "one_week_ago"
	DateThisWeek        DateOperator = "this_week"
	DateNextWeek        DateOperator = "next_week"
	DateOneMonthAgo     DateOperator = "one_month_ago"
	DateThisMonth       DateOperator = "this_month"
	DateNextMonth       DateOperator = "next_month"
	DateOneYearAgo      DateOperator = "one_year_ago"
	DateThisYear        DateOperator = "this_year"
	DateNextYear        DateOperator = "next_year"
	DateNrDaysAgo       DateOperator = "nr_days_ago"
	DateNrDaysFromNow   DateOperator = "nr_days_from_now"
	DateNrWeeksAgo      DateOperator = "nr_weeks_ago"
	DateNrWeeksFromNow  DateOperator = "nr_weeks_from_now"
	DateNrMonthsAgo     DateOperator = "nr_months_ago"
	DateNrMonthsFromNow DateOperator = "nr_months_from_now"
	DateNrYearsAgo      DateOperator = "nr_years_ago"
	DateNrYearsFromNow  DateOperator = "nr_years_from_now"
	DateExactDate       DateOperator = "exact_date"
)

// DateFilterValue is the parsed form of "timezone?value?operator"
type DateFilterValue struct {
	Timezone string
	Value    string
	Operator DateOperator
}

// ParseDateFilterValue splits a date filter value. "tz?value" and a bare
// "value" are the older formats and mean an exact date.
func ParseDateFilterValue(raw string) DateFilterValue {
	parts := strings.SplitN(raw, "?", 3)
	switch len(parts) {
	case 1:
		return DateFilterValue{Value: strings.TrimSpace(parts[0]), Operator: DateExactDate}
	case 2:
		return DateFilterValue{Timezone: parts[0], Value: strings.TrimSpace(parts[1]), Operator: DateExactDate}
	default:
		op := DateOperator(strings.TrimSpace(parts[2]))
		if op == "" {
			op = DateExactDate
		}
		return DateFilterValue{Timezone: parts[0], Value: strings.TrimSpace(parts[1]), Operator: op}
	}
}

// String renders the value back into the three part wire format
func (v DateFilterValue) String() string {
	return v.Timezone + "?" + v.Value + "?" + string(v.Operator)
}

// civilDate is a calendar day without a timezone
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

func (c civilDate) addDays(n int) civilDate {
	return civilOf(time.Date(c.year, c.month, c.day+n, 0, 0, 0, 0, time.UTC))
}

func (c civilDate) in(loc *time.Location) time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, loc)
}

// dateRange is the half open day range [start, end)
type dateRange struct {
	start civilDate
	end   civilDate
}

func dayRange(c civilDate) dateRange { return dateRange{c, c.addDays(1)} }

func weekRange(c civilDate) dateRange {
	// weeks start on monday
	offset := (int(c.in(time.UTC).Weekday()) + 6) % 7
	start := c.addDays(-offset)
	return dateRange{start, start.addDays(7)}
}

func monthRange(year int, month time.Month) dateRange {
	start := civilOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
	end := civilOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC))
	return dateRange{start, end}
}

func yearRange(year int) dateRange {
	return dateRange{civilDate{year, time.January, 1}, civilDate{year + 1, time.January, 1}}
}

// resolveRange computes the period an operator refers to relative to today
func resolveRange(op DateOperator, value string, today civilDate) (dateRange, bool) {
	nr := func() (int, bool) {
		n, err := strconv.Atoi(value)
		return n, err == nil
	}
	switch op {
	case DateToday:
		return dayRange(today), true
	case DateYesterday:
		return dayRange(today.addDays(-1)), true
	case DateTomorrow:
		return dayRange(today.addDays(1)), true
	case DateThisWeek:
		return weekRange(today), true
	case DateOneWeekAgo:
		return weekRange(today.addDays(-7)), true
	case DateNextWeek:
		return weekRange(today.addDays(7)), true
	case DateThisMonth:
		return monthRange(today.year, today.month), true
	case DateOneMonthAgo:
		return monthRange(today.year, today.month-1), true
	case DateNextMonth:
		return monthRange(today.year, today.month+1), true
	case DateThisYear:
		return yearRange(today.year), true
	case DateOneYearAgo:
		return yearRange(today.year - 1), true
	case DateNextYear:
		return yearRange(today.year + 1), true
	case DateNrDaysAgo, DateNrDaysFromNow:
		n, ok := nr()
		if !ok {
			return dateRange{}, false
		}
		if op == DateNrDaysAgo {
			n = -n
		}
		return dayRange(today.addDays(n)), true
	case DateNrWeeksAgo, DateNrWeeksFromNow:
		n, ok := nr()
		if !ok {
			return dateRange{}, false
		}
		if op == DateNrWeeksAgo {
			n = -n
		}
		return weekRange(today.addDays(7 * n)), true
	case DateNrMonthsAgo, DateNrMonthsFromNow:
		n, ok := nr()
		if !ok {
			return dateRange{}, false
		}
		if op == DateNrMonthsAgo {
			n = -n
		}
		return monthRange(today.year, today.month+time.Month(n)), true
	case DateNrYearsAgo, DateNrYearsFromNow:
		n, ok := nr()
		if !ok {
			return dateRange{}, false
		}
		if op == DateNrYearsAgo {
			n = -n
		}
		return yearRange(today.year + n), true
	case DateExactDate:
		t, err := time.Parse("2006-01-02", value)
		if err != nil {
			if len(value) < 10 {
				return dateRange{}, false
			}
			if t, err = time.Parse("2006-01-02", value[:10]); err != nil {
				return dateRange{}, false
			}
		}
		return dayRange(civilOf(t)), true
	default:
		return dateRange{}, false
	}
}

// DateRange holds the bounds a date filter resolved to. Start and End
// delimit the selected period, TodayStart and TodayEnd the current day.
// All bounds are half open.
type DateRange struct {
	Start      time.Time
	End        time.Time
	TodayStart time.Time
	TodayEnd   time.Time
}

// Within returns the span between today and the selected period
func (r DateRange) Within() (time.Time, time.Time) {
	lo, hi := r.TodayStart, r.TodayEnd
	if r.Start.Before(lo) {
		lo = r.Start
	}
	if r.End.After(hi) {
		hi = r.End
	}
	return lo, hi
}

// ResolveDateFilter resolves a raw date filter value relative to now. Bounds
// of date only fields are calendar days at midnight UTC, bounds of date time
// fields are instants in the filter timezone.
func ResolveDateFilter(raw string, now time.Time, dateOnly bool) (DateRange, bool) {
	v := ParseDateFilterValue(raw)
	loc := time.UTC
	if v.Timezone != "" {
		l, err := time.LoadLocation(v.Timezone)
		if err != nil {
			return DateRange{}, false
		}
		loc = l
	}
	today := civilOf(now.In(loc))
	r, ok := resolveRange(v.Operator, v.Value, today)
	if !ok {
		return DateRange{}, false
	}

	boundLoc := loc
	if dateOnly {
		boundLoc = time.UTC
	}
	t := dayRange(today)
	return DateRange{
		Start:      r.start.in(boundLoc),
		End:        r.end.in(boundLoc),
		TodayStart: t.start.in(boundLoc),
		TodayEnd:   t.end.in(boundLoc),
	}, true
}

// dateRelation decides a filter outcome from the row instant and the resolved range
type dateRelation func(row time.Time, r DateRange) bool

type dateFilter struct {
	name     string
	now      func() time.Time
	relation dateRelation
}

func (f dateFilter) Name() string { return f.name }

func (f dateFilter) Compatible(fieldType string) bool {
	return fieldType == models.FieldTypeDate
}

func (f dateFilter) Matches(rowValue any, filterValue string, field models.Field, _ FieldType) Result {
	r, ok := ResolveDateFilter(filterValue, f.now(), !field.DateIncludeTime)
	if !ok {
		return Inapplicable
	}
	row, _, ok := toTime(rowValue, field)
	if !ok {
		return NotMatched
	}
	return ResultOf(f.relation(row, r))
}

func dateFilterTypes(now func() time.Time) []FilterType {
	is := func(row time.Time, r DateRange) bool {
		return !row.Before(r.Start) && row.Before(r.End)
	}
	return []FilterType{
		dateFilter{FilterDateIs, now, is},
		negatedDate{dateFilter{FilterDateIsNot, now, is}},
		dateFilter{FilterDateIsBefore, now, func(row time.Time, r DateRange) bool {
			return row.Before(r.Start)
		}},
		dateFilter{FilterDateIsOnOrBefore, now, func(row time.Time, r DateRange) bool {
			return row.Before(r.End)
		}},
		dateFilter{FilterDateIsAfter, now, func(row time.Time, r DateRange) bool {
			return !row.Before(r.End)
		}},
		dateFilter{FilterDateIsOnOrAfter, now, func(row time.Time, r DateRange) bool {
			return !row.Before(r.Start)
		}},
		dateFilter{FilterDateIsWithin, now, func(row time.Time, r DateRange) bool {
			lo, hi := r.Within()
			return !row.Before(lo) && row.Before(hi)
		}},
	}
}

// negatedDate flips a date filter; an empty cell is "not" the date
type negatedDate struct {
	dateFilter
}

func (f negatedDate) Matches(rowValue any, filterValue string, field models.Field, fieldType FieldType) Result {
	return f.dateFilter.Matches(rowValue, filterValue, field, fieldType).Negate()
}
