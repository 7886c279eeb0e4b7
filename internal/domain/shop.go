package domain

import "time"

// Shop is the tenant boundary. Every other record carries a ShopID and is only
// ever read or written together with it.
type Shop struct {
	ID         int32  `json:"id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Timezone   string `json:"timezone"`
	Currency   string `json:"currency"`
	BookingSeq int32  `json:"booking_seq"`
	CreatedOn  string `json:"created_on"`
}

// Location resolves the shop timezone, falling back to fallback when the shop has
// none or it cannot be loaded.
func (s *Shop) Location(fallback *time.Location) *time.Location {
	if s == nil || s.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}
