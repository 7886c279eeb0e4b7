package report

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"

	"rentalshop-backend/internal/domain"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) Valid() bool {
	return p == PeriodDay || p == PeriodWeek || p == PeriodMonth
}

// Bucket sums the bookings starting inside [Start, End).
type Bucket struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Label   string    `json:"label"`
	Count   int       `json:"count"`
	Rent    int64     `json:"rent"`
	Deposit int64     `json:"deposit"`
	Total   int64     `json:"total"`
}

type Aggregator struct {
	Location     *time.Location
	WeekStartDay time.Weekday
}

func NewAggregator(loc *time.Location, weekStart time.Weekday) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{Location: loc, WeekStartDay: weekStart}
}

func (a *Aggregator) clock(t time.Time) *now.Now {
	cfg := &now.Config{WeekStartDay: a.WeekStartDay, TimeLocation: a.Location}
	return cfg.With(t.In(a.Location))
}

func (a *Aggregator) bucketStart(t time.Time, p Period) time.Time {
	c := a.clock(t)
	switch p {
	case PeriodWeek:
		return c.BeginningOfWeek()
	case PeriodMonth:
		return c.BeginningOfMonth()
	default:
		return c.BeginningOfDay()
	}
}

func next(t time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		return t.AddDate(0, 0, 7)
	case PeriodMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func label(t time.Time, p Period) string {
	switch p {
	case PeriodWeek:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case PeriodMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// Aggregate buckets bookings by their start time over [from, to). Every bucket
// in the range is returned, with zero sums when no booking falls in it.
// Cancelled and deleted bookings are left out.
func (a *Aggregator) Aggregate(bookings []domain.Booking, from, to time.Time, p Period) ([]Bucket, error) {
	if !p.Valid() {
		return nil, domain.Invalid("period", "must be one of day, week, month")
	}
	if !to.After(from) {
		return nil, domain.Invalid("to", "must be after from")
	}
	from, to = from.In(a.Location), to.In(a.Location)

	var buckets []Bucket
	for start := a.bucketStart(from, p); start.Before(to); start = next(start, p) {
		buckets = append(buckets, Bucket{Start: start, End: next(start, p), Label: label(start, p)})
	}

	for i := range bookings {
		b := &bookings[i]
		if !b.Visible() {
			continue
		}
		start := b.StartDate.In(a.Location)
		if start.Before(from) || !start.Before(to) {
			continue
		}
		idx := a.find(buckets, start)
		if idx < 0 {
			continue
		}
		buckets[idx].Count++
		buckets[idx].Rent += b.RentAmount
		buckets[idx].Deposit += b.DepositAmount
		buckets[idx].Total += b.TotalAmount
	}
	return buckets, nil
}

func (a *Aggregator) find(buckets []Bucket, t time.Time) int {
	lo, hi := 0, len(buckets)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case t.Before(buckets[mid].Start):
			hi = mid - 1
		case !t.Before(buckets[mid].End):
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

// Totals sums a set of buckets.
func Totals(buckets []Bucket) Bucket {
	var out Bucket
	for _, b := range buckets {
		out.Count += b.Count
		out.Rent += b.Rent
		out.Deposit += b.Deposit
		out.Total += b.Total
	}
	if n := len(buckets); n > 0 {
		out.Start, out.End = buckets[0].Start, buckets[n-1].End
	}
	return out
}
