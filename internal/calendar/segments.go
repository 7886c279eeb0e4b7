package calendar

import (
	"time"

	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/utils"
)

const (
	DefaultMinWidthPct = 5.0
	DefaultMaxVisible  = 3
)

// Segment is the part of one booking's hold on one vehicle that falls inside
// one visible day. LeftPct and WidthPct are for drawing; Fraction keeps the
// unclamped share of the day so occupancy totals are not skewed by the width
// floor.
type Segment struct {
	BookingID int32     `json:"booking_id"`
	VehicleID int32     `json:"vehicle_id"`
	DayIndex  int       `json:"day_index"`
	Day       time.Time `json:"day"`

	LeftPct  float64 `json:"left_pct"`
	WidthPct float64 `json:"width_pct"`
	Fraction float64 `json:"fraction"`

	StartMinutes int `json:"start_minutes"`
	EndMinutes   int `json:"end_minutes"`

	IsStartPartial bool `json:"is_start_partial"`
	IsEndPartial   bool `json:"is_end_partial"`
	IsFirstDay     bool `json:"is_first_day"`
	IsLastDay      bool `json:"is_last_day"`

	Status domain.BookingStatus `json:"status"`
	Stack  int                  `json:"stack"`
	Hidden bool                 `json:"hidden"`
}

// Layout is the builder output: every segment in generation order, plus the
// same segments grouped by vehicle and day index.
type Layout struct {
	Days     []time.Time
	Segments []*Segment
	Index    map[int32]map[int][]*Segment
}

func (l *Layout) Bucket(vehicleID int32, dayIndex int) []*Segment {
	if l.Index == nil {
		return nil
	}
	return l.Index[vehicleID][dayIndex]
}

// HiddenCount is the number of segments in a bucket beyond the visible stack cap.
func (l *Layout) HiddenCount(vehicleID int32, dayIndex int) int {
	n := 0
	for _, s := range l.Bucket(vehicleID, dayIndex) {
		if s.Hidden {
			n++
		}
	}
	return n
}

type Builder struct {
	MinWidthPct float64
	MaxVisible  int
}

func NewBuilder(minWidthPct float64, maxVisible int) *Builder {
	if minWidthPct < 0 {
		minWidthPct = 0
	}
	if maxVisible <= 0 {
		maxVisible = DefaultMaxVisible
	}
	return &Builder{MinWidthPct: minWidthPct, MaxVisible: maxVisible}
}

// Build lays out bookings over the given days. Days must be local midnights in
// the location the booking times were converted to. Only bookings on the listed
// vehicles are drawn; cancelled and deleted bookings are skipped. Stacks are
// assigned before returning.
func (b *Builder) Build(vehicles []domain.Vehicle, bookings []domain.Booking, days []time.Time) *Layout {
	layout := &Layout{
		Days:  days,
		Index: make(map[int32]map[int][]*Segment, len(vehicles)),
	}
	known := make(map[int32]bool, len(vehicles))
	for _, v := range vehicles {
		known[v.ID] = true
		layout.Index[v.ID] = make(map[int][]*Segment)
	}

	for i := range bookings {
		bk := &bookings[i]
		if !bk.Visible() {
			continue
		}
		for _, vid := range bk.VehicleIDs {
			if !known[vid] {
				continue
			}
			for di, day := range days {
				seg, ok := b.segment(bk, vid, di, day)
				if !ok {
					continue
				}
				layout.Segments = append(layout.Segments, seg)
				layout.Index[vid][di] = append(layout.Index[vid][di], seg)
			}
		}
	}

	AssignStacks(layout, b.MaxVisible)
	return layout
}

func (b *Builder) segment(bk *domain.Booking, vehicleID int32, dayIndex int, day time.Time) (*Segment, bool) {
	loc := day.Location()
	start := bk.StartDate.In(loc)
	end := bk.EndDate.In(loc)
	dayStart := utils.StartOfDay(day)
	dayEnd := utils.EndOfDay(day)

	if start.After(dayEnd) || !end.After(dayStart) {
		return nil, false
	}

	first := utils.SameDate(day, start)
	last := utils.SameDate(day, end)
	if last && utils.MinutesFromMidnight(end) == 0 {
		return nil, false
	}

	startMin, endMin := 0, utils.MinutesPerDay
	switch {
	case first && last:
		startMin, endMin = utils.MinutesFromMidnight(start), utils.MinutesFromMidnight(end)
	case first:
		startMin = utils.MinutesFromMidnight(start)
	case last:
		endMin = utils.MinutesFromMidnight(end)
	}

	fraction := float64(endMin-startMin) / utils.MinutesPerDay
	width := fraction * 100
	if width < b.MinWidthPct {
		width = b.MinWidthPct
	}

	return &Segment{
		BookingID:      bk.ID,
		VehicleID:      vehicleID,
		DayIndex:       dayIndex,
		Day:            dayStart,
		LeftPct:        float64(startMin) / utils.MinutesPerDay * 100,
		WidthPct:       width,
		Fraction:       fraction,
		StartMinutes:   startMin,
		EndMinutes:     endMin,
		IsStartPartial: first && !utils.IsFullDayStart(start),
		IsEndPartial:   last && !utils.IsFullDayEnd(end),
		IsFirstDay:     first,
		IsLastDay:      last,
		Status:         bk.Label(),
	}, true
}
