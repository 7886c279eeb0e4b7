package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"rentalshop-backend/internal/security"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Bookings  *BookingHandler
	Fleet     *FleetHandler
	Customers *CustomerHandler
	Calendar  *CalendarHandler
	// Health checks the backing store; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(h Handlers, tm security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverer, requestLogger, NewAuthMiddleware(tm).Handler)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/bookings/quote", h.Bookings.Quote).Methods(http.MethodPost)
	api.HandleFunc("/bookings", h.Bookings.Create).Methods(http.MethodPost)
	api.HandleFunc("/bookings", h.Bookings.List).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", h.Bookings.Get).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}", h.Bookings.Update).Methods(http.MethodPut)
	api.HandleFunc("/bookings/{id}", h.Bookings.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/bookings/{id}/payments", h.Bookings.RecordPayment).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/payments", h.Bookings.ListPayments).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/take", h.Bookings.Take).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/return", h.Bookings.Return).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/cancel", h.Bookings.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/invoice", h.Bookings.GenerateInvoice).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}/invoice", h.Bookings.GetInvoice).Methods(http.MethodGet)

	api.HandleFunc("/vehicles/available", h.Fleet.Available).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", h.Fleet.Create).Methods(http.MethodPost)
	api.HandleFunc("/vehicles", h.Fleet.List).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", h.Fleet.Get).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", h.Fleet.Update).Methods(http.MethodPut)
	api.HandleFunc("/vehicles/{id}/archive", h.Fleet.Archive).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/maintenance", h.Fleet.Maintenance).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/damages", h.Fleet.ReportDamage).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/blocks", h.Fleet.Block).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/blocks/{date}", h.Fleet.Unblock).Methods(http.MethodDelete)
	api.HandleFunc("/blocks", h.Fleet.ListBlocks).Methods(http.MethodGet)

	api.HandleFunc("/customers", h.Customers.Create).Methods(http.MethodPost)
	api.HandleFunc("/customers", h.Customers.List).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", h.Customers.Get).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", h.Customers.Update).Methods(http.MethodPut)

	api.HandleFunc("/calendar", h.Calendar.Calendar).Methods(http.MethodGet)
	api.HandleFunc("/reports/revenue", h.Calendar.Revenue).Methods(http.MethodGet)

	return r
}

func (h Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Health(ctx); err != nil {
			fail(w, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
	}
	success(w, http.StatusOK, "ok", nil)
}
