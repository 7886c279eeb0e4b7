package utils

import (
	"fmt"
	"time"

	"rentalshop-backend/internal/domain"
)

// RentQuote breaks a suggested rent down per vehicle.
type RentQuote struct {
	Days   int64
	Lines  []RentLine
	Amount int64
}

type RentLine struct {
	VehicleID  int32
	DailyPrice int64
	Amount     int64
}

// ChargeableDays counts started 24h periods between start and end, with a
// minimum of one. A 26 hour rental is charged as two days.
func ChargeableDays(start, end time.Time) (int64, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("end date must be after start date")
	}
	d := end.Sub(start)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days, nil
}

// QuoteRent prices a booking from the vehicles' daily prices.
func QuoteRent(start, end time.Time, vehicles []domain.Vehicle) (RentQuote, error) {
	days, err := ChargeableDays(start, end)
	if err != nil {
		return RentQuote{}, err
	}
	q := RentQuote{Days: days, Lines: make([]RentLine, 0, len(vehicles))}
	for _, v := range vehicles {
		line := RentLine{VehicleID: v.ID, DailyPrice: v.DailyPrice, Amount: v.DailyPrice * days}
		q.Lines = append(q.Lines, line)
		q.Amount += line.Amount
	}
	return q, nil
}
