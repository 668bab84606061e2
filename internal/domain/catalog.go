package domain

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Range names accepted by Catalog.Resolve.
const (
	RangeDaily   = "daily"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
	RangeAll     = "all"
)

var rangeDays = map[string]int{
	RangeDaily:   1,
	RangeWeekly:  7,
	RangeMonthly: 30,
}

// Selector picks the days to load. A non-empty Date takes precedence over Range.
type Selector struct {
	Range string
	Date  string
}

// Name returns the label recorded on the resulting dataset.
func (s Selector) Name() string {
	if s.Date != "" {
		return RangeDaily
	}
	if s.Range == "" {
		return RangeAll
	}
	return s.Range
}

// Catalog is the static, date-ordered list of available day files.
type Catalog struct {
	days []DayDescriptor
}

// NewCatalog builds one descriptor per calendar day from start to end inclusive.
func NewCatalog(start, end time.Time) *Catalog {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var days []DayDescriptor
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		days = append(days, DayDescriptor{
			Date:   date,
			Label:  DayLabel(d),
			FileID: date + ".csv",
		})
	}
	return &Catalog{days: days}
}

// DefaultCatalog covers 2017-09-01 through 2017-10-31.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2017, time.October, 31, 0, 0, 0, 0, time.UTC),
	)
}

// DayLabel formats a date as "Sep 1".
func DayLabel(t time.Time) string {
	return t.Format("Jan 2")
}

// Days returns a copy of every descriptor in the catalog.
func (c *Catalog) Days() []DayDescriptor {
	return append([]DayDescriptor(nil), c.days...)
}

// Resolve returns the days named by the selector, oldest first. Unknown range
// names resolve to the full catalog.
func (c *Catalog) Resolve(sel Selector) ([]DayDescriptor, error) {
	if sel.Date != "" {
		for _, d := range c.days {
			if d.Date == sel.Date {
				return []DayDescriptor{d}, nil
			}
		}
		return nil, fmt.Errorf("no source file for date %q: %w", sel.Date, ErrRangeNotFound)
	}

	n, ok := rangeDays[sel.Range]
	if !ok || n >= len(c.days) {
		return c.Days(), nil
	}
	return append([]DayDescriptor(nil), c.days[len(c.days)-n:]...), nil
}
