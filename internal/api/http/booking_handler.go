package http

import (
	"net/http"
	"time"

	"rentalshop-backend/internal/booking"
	"rentalshop-backend/internal/domain"
	"rentalshop-backend/internal/service"
)

type BookingHandler struct {
	bookingSvc service.BookingService
}

func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	staff := staffFrom(r.Context())
	quote, err := h.bookingSvc.QuoteRent(r.Context(), staff.ShopID, req.VehicleIDs, req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", quote)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	staff := staffFrom(r.Context())
	in := service.CreateBookingRequest{
		VehicleIDs:    req.VehicleIDs,
		CustomerID:    req.CustomerID,
		Start:         req.StartDate,
		End:           req.EndDate,
		Rent:          req.RentAmount,
		Deposit:       req.DepositAmount,
		Notes:         req.Notes,
		AllowBackdate: req.AllowBackdate,
	}
	if req.Customer != nil {
		in.Customer = req.Customer.toDomain(staff.ShopID)
	}
	b, err := h.bookingSvc.CreateBooking(r.Context(), staff, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusCreated, "booking created", b)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookingSvc.GetBooking(r.Context(), staffFrom(r.Context()).ShopID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", b)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.BookingFilter{Status: domain.BookingStatus(q.Get("status")), Page: page, PageSize: size}
	if filter.VehicleID, err = queryID(r, "vehicle_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.CustomerID, err = queryID(r, "customer_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.From, err = queryTime(r, "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		writeError(w, r, err)
		return
	}

	bookings, total, err := h.bookingSvc.ListBookings(r.Context(), staffFrom(r.Context()).ShopID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	success(w, http.StatusOK, "", Page{Items: bookings, Total: total, Page: page, PageSize: size})
}

func queryID(r *http.Request, name string) (int32, error) {
	n, err := queryInt(r, name, 0)
	if err != nil || n < 0 {
		return 0, domain.Invalid(name, "must be a positive id")
	}
	return int32(n), nil
}

// queryTime reads an RFC3339 filter bound; listings are not tied to a shop
// timezone so zone-less values are rejected.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.Invalid(name, "must be an RFC3339 timestamp")
	}
	return t, nil
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateBookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookingSvc.UpdateBooking(r.Context(), staffFrom(r.Context()), id, service.UpdateBookingRequest{
		VehicleIDs:    req.VehicleIDs,
		Start:         req.StartDate,
		End:           req.EndDate,
		Rent:          req.RentAmount,
		Deposit:       req.DepositAmount,
		Notes:         req.Notes,
		AllowBackdate: req.AllowBackdate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "booking updated", b)
}

func (h *BookingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req PaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, p, err := h.bookingSvc.RecordPayment(r.Context(), staffFrom(r.Context()), id, booking.RecordPayment{
		Amount: req.Amount,
		Method: domain.PaymentMethod(req.Method),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "payment recorded", map[string]interface{}{
		"booking": b,
		"payment": p,
		"label":   b.Label(),
	})
}

func (h *BookingHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	payments, err := h.bookingSvc.ListPayments(r.Context(), staffFrom(r.Context()).ShopID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	success(w, http.StatusOK, "", payments)
}

func (h *BookingHandler) Take(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req TakeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookingSvc.MarkTaken(r.Context(), staffFrom(r.Context()), id, booking.MarkTaken{OpeningOdometer: req.OpeningOdometer})
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "vehicle handed over", b)
}

func (h *BookingHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ReturnRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := booking.ReturnBooking{
		ClosingOdometer:  req.ClosingOdometer,
		Deduction:        req.DeductionAmount,
		DamageNotes:      req.DamageNotes,
		Settlement:       req.SettlementAmount,
		SettlementMethod: domain.PaymentMethod(req.SettlementMethod),
		DeferInvoice:     req.DeferInvoice,
	}
	for _, d := range req.Damages {
		in.Damages = append(in.Damages, d.toDomain())
	}
	b, summary, err := h.bookingSvc.ReturnBooking(r.Context(), staffFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "vehicle returned", map[string]interface{}{
		"booking": b,
		"summary": summary,
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req CancelRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookingSvc.CancelBooking(r.Context(), staffFrom(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "booking cancelled", b)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookingSvc.DeleteBooking(r.Context(), staffFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "booking deleted", b)
}

func (h *BookingHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.bookingSvc.GenerateInvoice(r.Context(), staffFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "invoice generated", inv)
}

func (h *BookingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.bookingSvc.GetInvoice(r.Context(), staffFrom(r.Context()).ShopID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, http.StatusOK, "", inv)
}
